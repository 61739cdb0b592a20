package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/property"
)

var propertyColumns = []string{
	"id", "title", "slug", "description", "developer_id", "type", "status", "price", "currency", "bedrooms",
	"bathrooms", "area_sqm", "location", "city", "address", "amenities", "images", "video_key", "brochure_key",
	"featured", "published", "created_at", "updated_at",
}

type propertyRow struct {
	ID          string          `db:"id"`
	Title       string          `db:"title"`
	Slug        string          `db:"slug"`
	Description string          `db:"description"`
	DeveloperID null.String     `db:"developer_id"`
	Type        string          `db:"type"`
	Status      string          `db:"status"`
	Price       float64         `db:"price"`
	Currency    string          `db:"currency"`
	Bedrooms    int             `db:"bedrooms"`
	Bathrooms   int             `db:"bathrooms"`
	AreaSqm     float64         `db:"area_sqm"`
	Location    string          `db:"location"`
	City        string          `db:"city"`
	Address     string          `db:"address"`
	Amenities   core.StringList `db:"amenities"`
	Images      core.StringList `db:"images"`
	VideoKey    string          `db:"video_key"`
	BrochureKey string          `db:"brochure_key"`
	Featured    bool            `db:"featured"`
	Published   bool            `db:"published"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func boilProperty(prop property.Property) propertyRow {
	return propertyRow{
		ID:          prop.ID,
		Title:       prop.Title,
		Slug:        prop.Slug,
		Description: prop.Description,
		DeveloperID: null.StringFromPtr(prop.DeveloperID),
		Type:        prop.Type,
		Status:      prop.Status,
		Price:       prop.Price,
		Currency:    prop.Currency,
		Bedrooms:    prop.Bedrooms,
		Bathrooms:   prop.Bathrooms,
		AreaSqm:     prop.AreaSqm,
		Location:    prop.Location,
		City:        prop.City,
		Address:     prop.Address,
		Amenities:   prop.Amenities,
		Images:      prop.Images,
		VideoKey:    prop.VideoKey,
		BrochureKey: prop.BrochureKey,
		Featured:    prop.Featured,
		Published:   prop.Published,
		CreatedAt:   prop.CreatedAt.UTC(),
		UpdatedAt:   prop.UpdatedAt.UTC(),
	}
}

func (row propertyRow) unboil() property.Property {
	amenities, images := row.Amenities, row.Images
	if amenities == nil {
		amenities = core.StringList{}
	}
	if images == nil {
		images = core.StringList{}
	}
	return property.Property{
		ID:          row.ID,
		Title:       row.Title,
		Slug:        row.Slug,
		Description: row.Description,
		DeveloperID: row.DeveloperID.Ptr(),
		Type:        row.Type,
		Status:      row.Status,
		Price:       row.Price,
		Currency:    row.Currency,
		Bedrooms:    row.Bedrooms,
		Bathrooms:   row.Bathrooms,
		AreaSqm:     row.AreaSqm,
		Location:    row.Location,
		City:        row.City,
		Address:     row.Address,
		Amenities:   amenities,
		Images:      images,
		VideoKey:    row.VideoKey,
		BrochureKey: row.BrochureKey,
		Featured:    row.Featured,
		Published:   row.Published,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (row propertyRow) values() map[string]interface{} {
	return map[string]interface{}{
		"title":        row.Title,
		"slug":         row.Slug,
		"description":  row.Description,
		"developer_id": row.DeveloperID,
		"type":         row.Type,
		"status":       row.Status,
		"price":        row.Price,
		"currency":     row.Currency,
		"bedrooms":     row.Bedrooms,
		"bathrooms":    row.Bathrooms,
		"area_sqm":     row.AreaSqm,
		"location":     row.Location,
		"city":         row.City,
		"address":      row.Address,
		"amenities":    row.Amenities,
		"images":       row.Images,
		"video_key":    row.VideoKey,
		"brochure_key": row.BrochureKey,
		"featured":     row.Featured,
		"published":    row.Published,
		"created_at":   row.CreatedAt,
		"updated_at":   row.UpdatedAt,
	}
}

type propertyRepository struct {
	baseRepository
}

var _ property.Repository = (*propertyRepository)(nil) // interface compliance check

func NewPropertyRepository(exec core.DBExecutor) *propertyRepository {
	return &propertyRepository{baseRepository{exec: exec}}
}

func (repo *propertyRepository) SlugExists(ctx context.Context, slug, excludedID string, exec ...core.DBExecutor) (bool, error) {
	found, err := slugExists(ctx, repo.getExec(exec), "properties", slug, excludedID)
	return found, errors.Wrap(err, "checking property slug")
}

func (repo *propertyRepository) DeveloperExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error) {
	found, err := idExists(ctx, repo.getExec(exec), "developers", id)
	return found, errors.Wrap(err, "checking developer")
}

func (repo *propertyRepository) CreateProperty(ctx context.Context, prop property.Property, exec ...core.DBExecutor) (property.Property, error) {
	prop.ID = uuid.NewString()
	row := boilProperty(prop)
	vals := row.values()
	vals["id"] = row.ID
	if _, err := execx(ctx, repo.getExec(exec), sq.Insert("properties").SetMap(vals)); err != nil {
		return property.Property{}, errors.Wrap(err, "inserting property")
	}
	return row.unboil(), nil
}

func (repo *propertyRepository) QueryProperties(ctx context.Context, filter *property.QueryFilter, ordering []core.DBOrdering, pg core.Page, exec ...core.DBExecutor) ([]property.Property, int, error) {
	b := sq.Select().From("properties")
	if filter != nil {
		if filter.Search != "" {
			b = b.Where(search(filter.Search, "title", "location", "city", "description"))
		}
		if filter.City != "" {
			b = b.Where(sq.Expr("LOWER(city) = ?", strings.ToLower(filter.City)))
		}
		if filter.Type != "" {
			b = b.Where(sq.Eq{"type": filter.Type})
		}
		if filter.Status != "" {
			b = b.Where(sq.Eq{"status": filter.Status})
		}
		if filter.DeveloperID != "" {
			b = b.Where(sq.Eq{"developer_id": filter.DeveloperID})
		}
		if filter.MinPrice != nil {
			b = b.Where(sq.GtOrEq{"price": *filter.MinPrice})
		}
		if filter.MaxPrice != nil {
			b = b.Where(sq.LtOrEq{"price": *filter.MaxPrice})
		}
		if filter.MinBedrooms != nil {
			b = b.Where(sq.GtOrEq{"bedrooms": *filter.MinBedrooms})
		}
		if filter.Featured != nil {
			b = b.Where(sq.Eq{"featured": *filter.Featured})
		}
		if filter.Published != nil {
			b = b.Where(sq.Eq{"published": *filter.Published})
		}
	}

	var rows []propertyRow
	total, err := paginate(ctx, repo.getExec(exec), &rows, b, propertyColumns, ordering, pg)
	if err != nil {
		return nil, 0, errors.Wrap(err, "selecting properties")
	}
	props := make([]property.Property, 0, len(rows))
	for _, row := range rows {
		props = append(props, row.unboil())
	}
	return props, total, nil
}

func (repo *propertyRepository) GetProperty(ctx context.Context, filter property.GetFilter, exec ...core.DBExecutor) (property.Property, error) {
	b := sq.Select(propertyColumns...).From("properties")
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return property.Property{}, property.ErrNotFound
		}
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.Slug != "":
		b = b.Where(sq.Eq{"slug": filter.Slug})
	default:
		return property.Property{}, property.ErrNotFound
	}
	if filter.PublishedOnly {
		b = b.Where(sq.Eq{"published": true})
	}

	var row propertyRow
	if err := get(ctx, repo.getExec(exec), &row, b); err != nil {
		return property.Property{}, trapNoRowsErr(err, property.ErrNotFound, "selecting property")
	}
	return row.unboil(), nil
}

func (repo *propertyRepository) UpdateProperty(ctx context.Context, prop property.Property, exec ...core.DBExecutor) (property.Property, error) {
	row := boilProperty(prop)
	vals := row.values()
	delete(vals, "created_at")
	res, err := execx(ctx, repo.getExec(exec), sq.Update("properties").SetMap(vals).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return property.Property{}, errors.Wrap(err, "updating property")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return property.Property{}, property.ErrNotFound
	}
	return row.unboil(), nil
}

func (repo *propertyRepository) DeletePropertiesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return deleteByID(ctx, repo.getExec(exec), "properties", ids)
}
