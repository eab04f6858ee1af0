package layout

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/order"
)

func newTestBuilder(t *testing.T, opts TableOptions) *TableBuilder {
	t.Helper()
	b, err := NewTableBuilder(newTestEngine(), opts, nil)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	return b
}

func sampleDoc(items ...order.LineItem) *order.Document {
	return &order.Document{
		ID:           "Dupont_20240501093000",
		CustomerName: "Marie Dupont",
		Phone:        "0601020304",
		Email:        "marie@example.com",
		Items:        items,
	}
}

func TestQuantityLines(t *testing.T) {
	labels := EnglishLabels()
	cases := []struct {
		item order.LineItem
		want []string
	}{
		{order.LineItem{QtyUnits: 5}, []string{"5 units"}},
		{order.LineItem{QtyUnits: 3, QtyCases: 2, UnitsPerCase: 12}, []string{"2 cases", "3 units", "Total: 27 units"}},
		{order.LineItem{QtyCases: 1, UnitsPerCase: 6}, []string{"1 case", "Total: 6 units"}},
		{order.LineItem{QtyUnits: 1}, []string{"1 unit"}},
		{order.LineItem{QtyCases: 2}, []string{"2 cases"}},
		{order.LineItem{}, nil},
	}
	for _, tc := range cases {
		got := QuantityLines(tc.item, labels)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("QuantityLines(%+v) = %q, want %q", tc.item, got, tc.want)
		}
	}
}

func TestQuantityLinesFrench(t *testing.T) {
	got := QuantityLines(order.LineItem{QtyUnits: 1, QtyCases: 3, UnitsPerCase: 4}, FrenchLabels())
	want := []string{"3 caisses", "1 unité", "Total: 13 unités"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestColumnsFillUsableWidth(t *testing.T) {
	opts := DefaultTableOptions()
	cols := opts.Columns()
	if cols[0] != 15 || math.Abs(cols[4]-195) > 1e-9 {
		t.Fatalf("unexpected table edges %v", cols)
	}
	if math.Abs(opts.ProductColumn()-73) > 1e-9 {
		t.Fatalf("product column = %v, want 73", opts.ProductColumn())
	}
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	mutations := map[string]func(*TableOptions){
		"no product width": func(o *TableOptions) { o.ThumbColumn = 150 },
		"zero page":        func(o *TableOptions) { o.PageWidth = 0 },
		"negative margin":  func(o *TableOptions) { o.Margin.Left = -1 },
		"zero font":        func(o *TableOptions) { o.Fonts.Product = 0 },
		"margins too big":  func(o *TableOptions) { o.Margin.Top = 200; o.Margin.Bottom = 100 },
		"padding too big":  func(o *TableOptions) { o.Padding = 16 },
		"unknown title":    func(o *TableOptions) { o.Labels.Title = "PO ${order_no}" },
		"unknown meta":     func(o *TableOptions) { o.Labels.Meta = []string{"Client: ${customer.name}"} },
		"empty field":      func(o *TableOptions) { o.Labels.Meta = []string{"${ }"} },
	}
	for name, mutate := range mutations {
		opts := DefaultTableOptions()
		mutate(&opts)
		_, err := NewTableBuilder(newTestEngine(), opts, nil)
		if !errors.Is(err, docerr.ErrInvalidParameter) {
			t.Fatalf("%s: expected InvalidParameter, got %v", name, err)
		}
	}
}

func TestRowHeightUsesTallestColumn(t *testing.T) {
	opts := DefaultTableOptions()
	b := newTestBuilder(t, opts)

	res, err := b.Build(sampleDoc(
		order.LineItem{Name: "Rice", QtyUnits: 1},
		order.LineItem{Name: "Soy", QtyUnits: 1, Remark: strings.Repeat("note\n", 8)},
	))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows := res.Pages[0].Rows
	minHeight := math.Max(opts.MinRowHeight, opts.ThumbHeight+2*opts.Padding)
	if rows[0].Height != minHeight {
		t.Fatalf("short row height = %v, want %v", rows[0].Height, minHeight)
	}
	want := 8*opts.LineHeight + 2*opts.Padding
	if math.Abs(rows[1].Height-want) > 1e-9 {
		t.Fatalf("tall row height = %v, want %v", rows[1].Height, want)
	}
	if rows[1].Y != rows[0].Y+rows[0].Height {
		t.Fatalf("rows must be stacked, got y=%v after %v+%v", rows[1].Y, rows[0].Y, rows[0].Height)
	}
	if rows[0].Y != res.Pages[0].Header.Height {
		t.Fatalf("first row should start below the header")
	}
}

func TestTextColumnsTopAligned(t *testing.T) {
	opts := DefaultTableOptions()
	b := newTestBuilder(t, opts)
	res, err := b.Build(sampleDoc(order.LineItem{Name: "Rice", QtyUnits: 2, Remark: "fragile"}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	row := res.Pages[0].Rows[0]
	for _, tb := range row.Texts {
		if tb.Y != row.Y+opts.Padding {
			t.Fatalf("text box at y=%v, want %v", tb.Y, row.Y+opts.Padding)
		}
	}
	if row.Texts[1].Lines[0].Content != "2 units" {
		t.Fatalf("quantity column = %+v", row.Texts[1].Lines)
	}
}

func TestPaginationWholeRows(t *testing.T) {
	opts := DefaultTableOptions()
	b := newTestBuilder(t, opts)
	faker := gofakeit.New(7)

	for _, n := range []int{1, 5, 8, 9, 17, 40} {
		items := make([]order.LineItem, n)
		for i := range items {
			items[i] = order.LineItem{Name: faker.Noun(), QtyUnits: faker.IntRange(1, 9)}
		}
		res, err := b.Build(sampleDoc(items...))
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		rowH := math.Max(opts.MinRowHeight, opts.ThumbHeight+2*opts.Padding)
		usable := opts.PageHeight - opts.Margin.Bottom - res.Pages[0].Header.Height
		perPage := int(math.Floor(usable / rowH))
		wantPages := (n + perPage - 1) / perPage
		if len(res.Pages) != wantPages {
			t.Fatalf("n=%d: pages = %d, want %d", n, len(res.Pages), wantPages)
		}
		if res.RowCount() != n {
			t.Fatalf("n=%d: row count = %d", n, res.RowCount())
		}
		for i, p := range res.Pages {
			if !reflect.DeepEqual(p.Header, res.Pages[0].Header) {
				t.Fatalf("page %d header differs", i)
			}
			last := p.Rows[len(p.Rows)-1]
			if last.Y+last.Height > opts.PageHeight-opts.Margin.Bottom+1e-9 {
				t.Fatalf("page %d row overflows bottom margin", i)
			}
		}
	}
}

func TestOvertallRowGetsOwnPage(t *testing.T) {
	b := newTestBuilder(t, DefaultTableOptions())
	res, err := b.Build(sampleDoc(
		order.LineItem{Name: "first", QtyUnits: 1},
		order.LineItem{Name: "tall", QtyUnits: 1, Remark: strings.Repeat("note\n", 60)},
		order.LineItem{Name: "last", QtyUnits: 1},
	))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(res.Pages))
	}
	for i, p := range res.Pages {
		if len(p.Rows) != 1 || p.Rows[0].Item != i {
			t.Fatalf("page %d should hold only item %d, got %+v", i, i, p.Rows)
		}
	}
}

func TestEmptyOrderHasHeaderPage(t *testing.T) {
	b := newTestBuilder(t, DefaultTableOptions())
	res, err := b.Build(sampleDoc())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Pages) != 1 || len(res.Pages[0].Rows) != 0 || len(res.Pages[0].Header.Texts) == 0 {
		t.Fatalf("expected one header-only page, got %+v", res.Pages)
	}
}

func headerText(p Page) string {
	var parts []string
	for _, tb := range p.Header.Texts {
		for _, l := range tb.Lines {
			parts = append(parts, l.Content)
		}
	}
	return strings.Join(parts, "\n")
}

func TestHeaderOmitsEmptyCreatedLine(t *testing.T) {
	b := newTestBuilder(t, DefaultTableOptions())
	doc := sampleDoc(order.LineItem{Name: "Rice", QtyUnits: 1})

	res, err := b.Build(doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(headerText(res.Pages[0]), "Created") {
		t.Fatalf("created line should be omitted:\n%s", headerText(res.Pages[0]))
	}

	doc.CreatedAt = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	res, err = b.Build(doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	text := headerText(res.Pages[0])
	for _, want := range []string{"Purchase Order", "Created: 2024-05-01 09:30:00", "Dupont_20240501093000", "Preview", "Remark"} {
		if !strings.Contains(text, want) {
			t.Fatalf("header missing %q:\n%s", want, text)
		}
	}
}

func TestImageBoxAndPlaceholderSize(t *testing.T) {
	opts := DefaultTableOptions()
	b := newTestBuilder(t, opts)
	res, err := b.Build(sampleDoc(order.LineItem{Name: "Rice", QtyUnits: 1}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	row := res.Pages[0].Rows[0]
	box := row.Image
	if box.Path != "" {
		t.Fatalf("missing image should keep an empty path")
	}
	if box.Width != opts.ThumbWidth() || box.Height != opts.ThumbHeight {
		t.Fatalf("image box %vx%v, want %vx%v", box.Width, box.Height, opts.ThumbWidth(), opts.ThumbHeight)
	}
	if box.X != row.Border.X+opts.Padding {
		t.Fatalf("image box x = %v", box.X)
	}
	if box.Y < row.Y || box.Y+box.Height > row.Y+row.Height {
		t.Fatalf("image box escapes its row")
	}
}

func TestFitRectCentersWithinBox(t *testing.T) {
	box := ImageBox{X: 10, Y: 20, Width: 26, Height: 22}
	cases := []struct{ w, h int }{{100, 50}, {50, 100}, {800, 600}, {1, 1}, {26, 22}}
	for _, tc := range cases {
		r := FitRect(tc.w, tc.h, box)
		if r.Width > box.Width+1e-9 || r.Height > box.Height+1e-9 {
			t.Fatalf("%dx%d: fitted %vx%v exceeds box", tc.w, tc.h, r.Width, r.Height)
		}
		if math.Abs((r.X-box.X)-(box.X+box.Width-r.X-r.Width)) > 1e-9 {
			t.Fatalf("%dx%d: not centered horizontally: %+v", tc.w, tc.h, r)
		}
		if math.Abs((r.Y-box.Y)-(box.Y+box.Height-r.Y-r.Height)) > 1e-9 {
			t.Fatalf("%dx%d: not centered vertically: %+v", tc.w, tc.h, r)
		}
		ratio := float64(tc.w) / float64(tc.h)
		if math.Abs(r.Width/r.Height-ratio) > 1e-9 {
			t.Fatalf("%dx%d: aspect ratio changed", tc.w, tc.h)
		}
	}
	if r := FitRect(0, 10, box); r.Width != 0 || r.Height != 0 {
		t.Fatalf("degenerate source should produce an empty rect")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := newTestBuilder(t, DefaultTableOptions())
	faker := gofakeit.New(99)
	items := make([]order.LineItem, 25)
	for i := range items {
		items[i] = order.LineItem{
			Name:         faker.ProductName() + " 中文名称",
			QtyUnits:     faker.IntRange(0, 20),
			QtyCases:     faker.IntRange(0, 5),
			UnitsPerCase: faker.IntRange(0, 24),
			Remark:       faker.Sentence(faker.IntRange(1, 15)),
		}
	}
	doc := sampleDoc(items...)
	first, err := b.Build(doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := b.Build(doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("layout differs between runs")
	}
}

func TestBuildRejectsInvalidOrder(t *testing.T) {
	b := newTestBuilder(t, DefaultTableOptions())
	_, err := b.Build(&order.Document{ID: ""})
	if !errors.Is(err, docerr.ErrInvalidParameter) {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}
