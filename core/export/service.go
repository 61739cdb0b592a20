package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/lead"
	"github.com/trezcool/nyumba/core/property"
)

const (
	TargetLeads       = "leads"
	TargetSubscribers = "subscribers"
	TargetProperties  = "properties"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	sheetName = "Export"
)

var (
	Targets = []string{TargetLeads, TargetSubscribers, TargetProperties}
	Formats = []string{FormatCSV, FormatXLSX}

	// errors
	ErrUnknownTarget = core.NewNotFoundError("export")
	errUnknownFormat = errors.New("must be one of: csv, xlsx")
)

type (
	Repository interface {
		ExportLeads(ctx context.Context, preds []Predicate, exec ...core.DBExecutor) ([]lead.Lead, error)
		ExportSubscribers(ctx context.Context, preds []Predicate, exec ...core.DBExecutor) ([]lead.Subscriber, error)
		ExportProperties(ctx context.Context, preds []Predicate, exec ...core.DBExecutor) ([]property.Property, error)
	}

	Service interface {
		// Export writes the rows of target matching filter to w, and returns the attachment file name.
		Export(ctx context.Context, target, format string, filter Filter, w io.Writer) (string, error)
	}

	service struct {
		repo    Repository
		nowFunc func() time.Time // mockable
	}

	table struct {
		header []string
		rows   [][]string
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) *service {
	return &service{repo: repo, nowFunc: time.Now}
}

// FileName is "<target>-<yyyymmdd>.<format>".
func FileName(target, format string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", target, now.UTC().Format("20060102"), format)
}

func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (svc *service) Export(ctx context.Context, target, format string, filter Filter, w io.Writer) (string, error) {
	format = core.CleanString(format, true /* lower */)
	if format == "" {
		format = FormatCSV
	}
	if !core.OneOf(format, Formats) {
		return "", core.NewValidationError(errUnknownFormat, core.FieldError{Field: "format", Error: errUnknownFormat.Error()})
	}

	tbl, err := svc.table(ctx, target, filter)
	if err != nil {
		return "", err
	}

	if format == FormatXLSX {
		err = writeXLSX(w, tbl)
	} else {
		err = writeCSV(w, tbl)
	}
	if err != nil {
		return "", errors.Wrap(err, "writing "+format)
	}
	return FileName(target, format, svc.nowFunc()), nil
}

func (svc *service) table(ctx context.Context, target string, filter Filter) (table, error) {
	switch target {
	case TargetLeads:
		preds, err := filter.Predicates("created_at", "budget")
		if err != nil {
			return table{}, err
		}
		preds = append(preds, Eq("kind", filter.Kind)...)
		preds = append(preds, Eq("status", filter.Status)...)
		lds, err := svc.repo.ExportLeads(ctx, preds)
		if err != nil {
			return table{}, errors.Wrap(err, "exporting leads")
		}
		return leadsTable(lds), nil

	case TargetSubscribers:
		preds, err := filter.Predicates("created_at", "")
		if err != nil {
			return table{}, err
		}
		switch filter.Status {
		case "subscribed":
			preds = append(preds, Predicate{Column: "subscribed", Op: OpEq, Value: true})
		case "unsubscribed":
			preds = append(preds, Predicate{Column: "subscribed", Op: OpEq, Value: false})
		}
		subs, err := svc.repo.ExportSubscribers(ctx, preds)
		if err != nil {
			return table{}, errors.Wrap(err, "exporting subscribers")
		}
		return subscribersTable(subs), nil

	case TargetProperties:
		preds, err := filter.Predicates("created_at", "price")
		if err != nil {
			return table{}, err
		}
		preds = append(preds, Eq("type", filter.Kind)...)
		preds = append(preds, Eq("status", filter.Status)...)
		props, err := svc.repo.ExportProperties(ctx, preds)
		if err != nil {
			return table{}, errors.Wrap(err, "exporting properties")
		}
		return propertiesTable(props), nil
	}
	return table{}, ErrUnknownTarget
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func formatAmount(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func leadsTable(lds []lead.Lead) table {
	tbl := table{header: []string{
		"id", "kind", "name", "email", "phone", "message", "property_id", "event_id", "budget",
		"nationality", "id_number", "occupation", "source_of_funds", "document_key", "page",
		"preferred_contact", "status", "notes", "created_at",
	}}
	for _, ld := range lds {
		var budget string
		if ld.Budget != nil {
			budget = formatAmount(*ld.Budget)
		}
		tbl.rows = append(tbl.rows, []string{
			ld.ID, ld.Kind, ld.Name, ld.Email, ld.Phone, ld.Message, deref(ld.PropertyID), deref(ld.EventID), budget,
			ld.Nationality, ld.IDNumber, ld.Occupation, ld.SourceOfFunds, ld.DocumentKey, ld.Page,
			ld.PreferredContact, ld.Status, ld.Notes, formatTime(ld.CreatedAt),
		})
	}
	return tbl
}

func subscribersTable(subs []lead.Subscriber) table {
	tbl := table{header: []string{"id", "email", "name", "source", "subscribed", "created_at"}}
	for _, sub := range subs {
		tbl.rows = append(tbl.rows, []string{
			sub.ID, sub.Email, sub.Name, sub.Source, strconv.FormatBool(sub.Subscribed), formatTime(sub.CreatedAt),
		})
	}
	return tbl
}

func propertiesTable(props []property.Property) table {
	tbl := table{header: []string{
		"id", "title", "slug", "developer_id", "type", "status", "price", "currency", "bedrooms", "bathrooms",
		"area_sqm", "city", "location", "amenities", "featured", "published", "created_at",
	}}
	for _, p := range props {
		tbl.rows = append(tbl.rows, []string{
			p.ID, p.Title, p.Slug, deref(p.DeveloperID), p.Type, p.Status, formatAmount(p.Price), p.Currency,
			strconv.Itoa(p.Bedrooms), strconv.Itoa(p.Bathrooms), formatAmount(p.AreaSqm), p.City, p.Location,
			strings.Join(p.Amenities, "; "), strconv.FormatBool(p.Featured), strconv.FormatBool(p.Published),
			formatTime(p.CreatedAt),
		})
	}
	return tbl
}

func writeCSV(w io.Writer, tbl table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.header); err != nil {
		return err
	}
	if err := cw.WriteAll(tbl.rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeXLSX(w io.Writer, tbl table) error {
	f := excelize.NewFile()
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	if err = sw.SetRow("A1", toCells(tbl.header)); err != nil {
		return err
	}
	for i, row := range tbl.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = sw.SetRow(cell, toCells(row)); err != nil {
			return err
		}
	}
	if err = sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
