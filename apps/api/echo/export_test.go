package echoapi_test

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/nyumba/core/lead"
	"github.com/trezcool/nyumba/testutil"
)

func Test_exportApi(t *testing.T) {
	e := setup(t)
	approved, _, _ := e.staff(t)
	token := getToken(t, e.conf, approved)

	testutil.CreateLead(t, e.leadRepo, lead.Lead{
		Name: "Jan, the first", Email: "jan@test.cd", Budget: testutil.FloatPtr(50000),
		CreatedAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	})
	testutil.CreateLead(t, e.leadRepo, lead.Lead{
		Kind: lead.KindKYC, Name: "Feb", Email: "feb@test.cd", Budget: testutil.FloatPtr(150000),
		CreatedAt: time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC),
	})
	testutil.CreateSubscriber(t, e.leadRepo, "fan@test.cd", true)
	testutil.CreateSubscriber(t, e.leadRepo, "gone@test.cd", false)

	runHTTPTests(t, e, []httpTest{
		{name: "no token", path: "/v1/admin/exports/leads", wantCode: http.StatusUnauthorized},
		{
			name: "unknown target", path: "/v1/admin/exports/admins", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "export not found"}),
		},
		{
			name: "unknown format", path: "/v1/admin/exports/leads?format=pdf", token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"format": "must be one of: csv, xlsx"}`),
		},
		{
			name: "inverted dates", path: "/v1/admin/exports/leads?from=2024-03-01&to=2024-01-01", token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"from": "must be on or before to"}`),
		},
	})

	readCSV := func(t *testing.T, path string) [][]string {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
		assert.Regexp(t, `^attachment; filename="[a-z]+-\d{8}\.csv"$`, rec.Header().Get("Content-Disposition"))

		records, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		return records
	}

	t.Run("leads csv", func(t *testing.T) {
		records := readCSV(t, "/v1/admin/exports/leads")
		require.Len(t, records, 3)
		assert.Equal(t, "id", records[0][0])
		assert.Contains(t, records[0], "budget")

		var names []string
		for _, r := range records[1:] {
			names = append(names, r[2])
		}
		assert.ElementsMatch(t, []string{"Jan, the first", "Feb"}, names)
	})

	t.Run("leads csv, filtered", func(t *testing.T) {
		records := readCSV(t, "/v1/admin/exports/leads?from=2024-02-01&to=2024-02-15&min_amount=100000")
		require.Len(t, records, 2)
		assert.Equal(t, "Feb", records[1][2])

		records = readCSV(t, "/v1/admin/exports/leads?kind=contact")
		require.Len(t, records, 2)
		assert.Equal(t, "Jan, the first", records[1][2])
	})

	t.Run("subscribers csv", func(t *testing.T) {
		records := readCSV(t, "/v1/admin/exports/subscribers?status=unsubscribed")
		require.Len(t, records, 2)
		assert.Equal(t, "gone@test.cd", records[1][1])
		assert.Equal(t, "false", records[1][4])
	})

	t.Run("properties xlsx", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/exports/properties?format=xlsx", token)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Export")
		require.NoError(t, err)
		require.Len(t, rows, 1) // header only
		assert.Equal(t, "title", rows[0][1])
	})
}
