package order

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/orderpdf/docerr"
)

const sampleRecord = `{
  "order_id": "Dupont_20240501093000",
  "customer_name": "Marie Dupont",
  "phone": "0601020304",
  "email": "marie@example.com",
  "created_at": "2024-05-01 09:30:00",
  "status": "Nouveau",
  "items": [
    {"name": "Riz jasmin 5kg", "qty_units": 3, "qty_cases": 2, "units_per_case": 12, "remark": "", "image_path": "images/rice.jpg"},
    {"name": "酱油 500ml", "qty_units": 5, "qty_cases": 0, "units_per_case": 0, "remark": "少盐", "image_path": null}
  ]
}`

func TestLoadRecord(t *testing.T) {
	doc, err := Load(strings.NewReader(sampleRecord), "/data/orders/x")
	require.NoError(t, err)

	assert.Equal(t, "Dupont_20240501093000", doc.ID)
	assert.Equal(t, 2024, doc.CreatedAt.Year())
	require.Len(t, doc.Items, 2)
	assert.Equal(t, filepath.Join("/data/orders/x", "images/rice.jpg"), doc.Items[0].ImagePath)
	assert.Empty(t, doc.Items[1].ImagePath)
	assert.Equal(t, 27, doc.Items[0].TotalUnits())
	assert.True(t, doc.Items[0].HasTotal())
	assert.False(t, doc.Items[1].HasTotal())
	assert.Equal(t, 32, doc.TotalUnits())
	require.NoError(t, doc.Validate())
}

func TestSaveThenLoadKeepsFields(t *testing.T) {
	doc, err := Load(strings.NewReader(sampleRecord), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))
	assert.Contains(t, buf.String(), "酱油", "non-ASCII text must not be escaped")

	again, err := Load(&buf, "")
	require.NoError(t, err)
	assert.Equal(t, doc.Items, again.Items)
	assert.True(t, doc.CreatedAt.Equal(again.CreatedAt))
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(strings.NewReader("{"), "")
	assert.True(t, errors.Is(err, docerr.ErrInvalidParameter))

	_, err = Load(strings.NewReader(`{"order_id":"a","created_at":"yesterday"}`), "")
	assert.True(t, errors.Is(err, docerr.ErrInvalidParameter))
}

func TestValidate(t *testing.T) {
	cases := map[string]*Document{
		"missing id":     {Items: []LineItem{{Name: "a"}}},
		"missing name":   {ID: "x", Items: []LineItem{{Name: "  "}}},
		"negative units": {ID: "x", Items: []LineItem{{Name: "a", QtyUnits: -1}}},
		"negative cases": {ID: "x", Items: []LineItem{{Name: "a", QtyCases: -2}}},
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(doc.Validate(), docerr.ErrInvalidParameter))
		})
	}
	var nilDoc *Document
	assert.Error(t, nilDoc.Validate())
}

func TestNormalizeComposesAccents(t *testing.T) {
	doc := &Document{ID: "x", CustomerName: "  Eléonore ", Items: []LineItem{{Name: "Café ", Remark: " ok "}}}
	n := doc.Normalize()

	assert.Equal(t, "Eléonore", n.CustomerName)
	assert.Equal(t, "Café", n.Items[0].Name)
	assert.Equal(t, "ok", n.Items[0].Remark)
	assert.Equal(t, "Café ", doc.Items[0].Name, "input document must stay untouched")
}

func TestNewID(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "MarieDupont_20240501093000", NewID(" Marie  Dupont ", now))

	anon := NewID("", now)
	assert.True(t, strings.HasSuffix(anon, "_20240501093000"))
	assert.Len(t, anon, 8+1+14)
}

func TestFields(t *testing.T) {
	doc := &Document{ID: "x", Items: []LineItem{{Name: "a", QtyUnits: 2}}}
	f := doc.Fields()
	assert.Equal(t, "", f["created_at"])
	assert.Equal(t, 1, f["item_count"])
	assert.Equal(t, 2, f["total_units"])
}
