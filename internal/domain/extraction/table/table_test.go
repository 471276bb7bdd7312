package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/pdftext"
)

func item(text string, x, y float64, page int) pdftext.Item {
	return pdftext.Item{Text: text, X: x, Y: y, Page: page}
}

func TestClusterRows(t *testing.T) {
	t.Run("partitions every item into exactly one row", func(t *testing.T) {
		items := []pdftext.Item{
			item("b", 100, 700.5, 1),
			item("a", 50, 700, 1),
			item("c", 50, 650, 1),
			item("d", 50, 649, 1),
			item("e", 50, 700, 2),
		}
		rows := ClusterRows(items, DefaultRowTolerance)

		total := 0
		for _, r := range rows {
			total += len(r.Items)
		}
		assert.Equal(t, len(items), total)

		require.Len(t, rows, 3)
		assert.Equal(t, "a b", rows[0].Text())
		assert.Equal(t, "c d", rows[1].Text())
		assert.Equal(t, "e", rows[2].Text())
	})

	t.Run("orders rows top to bottom within a page", func(t *testing.T) {
		items := []pdftext.Item{
			item("bottom", 10, 100, 1),
			item("top", 10, 700, 1),
			item("middle", 10, 400, 1),
		}
		rows := ClusterRows(items, DefaultRowTolerance)
		require.Len(t, rows, 3)
		assert.Equal(t, "top", rows[0].Text())
		assert.Equal(t, "middle", rows[1].Text())
		assert.Equal(t, "bottom", rows[2].Text())
	})

	t.Run("never merges rows across pages", func(t *testing.T) {
		items := []pdftext.Item{
			item("p1", 10, 500, 1),
			item("p2", 10, 500, 2),
		}
		rows := ClusterRows(items, WideRowTolerance)
		assert.Len(t, rows, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ClusterRows(nil, DefaultRowTolerance))
	})
}

func TestDetectHeader(t *testing.T) {
	t.Run("single row header", func(t *testing.T) {
		rows := ClusterRows([]pdftext.Item{
			item("Date", 40, 700, 1),
			item("Description", 150, 700, 1),
			item("Amount", 350, 700, 1),
			item("Balance", 450, 700, 1),
			item("01/02/2024", 40, 680, 1),
		}, DefaultRowTolerance)

		h, ok := DetectHeader(rows)
		require.True(t, ok)
		assert.False(t, h.Split)
		assert.Equal(t, 0, h.RowIndex)
		assert.Equal(t, 1, h.DataStart)

		a, ok := h.Anchor(columns.RoleAmount)
		require.True(t, ok)
		assert.InDelta(t, 350, a.X, 0.01)
	})

	t.Run("split header joins amount row below", func(t *testing.T) {
		rows := ClusterRows([]pdftext.Item{
			item("Transaction Date", 40, 700, 1),
			item("Process Date", 150, 700, 1),
			item("Transaction Details", 260, 700, 1),
			item("Amount £", 420, 688, 1),
			item("05 Mar", 40, 670, 1),
		}, DefaultRowTolerance)

		h, ok := DetectHeader(rows)
		require.True(t, ok)
		assert.True(t, h.Split)
		assert.Equal(t, 2, h.DataStart)

		_, ok = h.Anchor(columns.RoleDate)
		assert.True(t, ok)
		_, ok = h.Anchor(columns.RoleProcessDate)
		assert.True(t, ok)
		a, ok := h.Anchor(columns.RoleAmount)
		require.True(t, ok)
		assert.InDelta(t, 420, a.X, 0.01)
	})

	t.Run("no header in free text", func(t *testing.T) {
		rows := ClusterRows([]pdftext.Item{
			item("Dear customer,", 40, 700, 1),
			item("thank you for banking with us", 40, 680, 1),
		}, DefaultRowTolerance)
		_, ok := DetectHeader(rows)
		assert.False(t, ok)
	})
}

func TestReconstruct(t *testing.T) {
	t.Run("assigns fragments to nearest anchors", func(t *testing.T) {
		items := []pdftext.Item{
			item("Date", 40, 700, 1),
			item("Description", 150, 700, 1),
			item("Amount", 350, 700, 1),
			item("Balance", 450, 700, 1),

			item("01/02/2024", 42, 680, 1),
			item("TESCO", 148, 680, 1),
			item("STORES", 200, 680, 1), // off-anchor, folds into description
			item("12.50", 352, 680, 1),
			item("987.50", 452, 680, 1),
		}
		grid, err := NewReconstructor(nil).Reconstruct(items)
		require.NoError(t, err)
		require.Len(t, grid.Records, 1)

		rec := grid.Records[0]
		assert.Equal(t, "01/02/2024", rec.Fields[columns.RoleDate])
		assert.Equal(t, "TESCO STORES", rec.Fields[columns.RoleDescription])
		assert.Equal(t, "12.50", rec.Fields[columns.RoleAmount])
		assert.Equal(t, "987.50", rec.Fields[columns.RoleBalance])
	})

	t.Run("lone CR row amends the prior record", func(t *testing.T) {
		items := []pdftext.Item{
			item("Date", 40, 700, 1),
			item("Description", 150, 700, 1),
			item("Amount", 350, 700, 1),

			item("03/02/2024", 42, 680, 1),
			item("PAYMENT RECEIVED", 150, 680, 1),
			item("45.00", 350, 680, 1),

			item("CR", 350, 670, 1),

			item("04/02/2024", 42, 660, 1),
			item("COFFEE", 150, 660, 1),
			item("3.20", 350, 660, 1),
		}
		grid, err := NewReconstructor(nil).Reconstruct(items)
		require.NoError(t, err)
		require.Len(t, grid.Records, 2)
		assert.Equal(t, "45.00 CR", grid.Records[0].Fields[columns.RoleAmount])
		assert.Equal(t, "3.20", grid.Records[1].Fields[columns.RoleAmount])
	})

	t.Run("skips repeated headers and banners", func(t *testing.T) {
		items := []pdftext.Item{
			item("Date", 40, 700, 1),
			item("Description", 150, 700, 1),
			item("Amount", 350, 700, 1),

			item("01/02/2024", 42, 680, 1),
			item("SHOP", 150, 680, 1),
			item("9.99", 350, 680, 1),

			item("Page 1 of 3", 40, 660, 1),

			item("Date", 40, 700, 2),
			item("Description", 150, 700, 2),
			item("Amount", 350, 700, 2),

			item("02/02/2024", 42, 680, 2),
			item("CAFE", 150, 680, 2),
			item("4.40", 350, 680, 2),
		}
		grid, err := NewReconstructor(nil).Reconstruct(items)
		require.NoError(t, err)
		require.Len(t, grid.Records, 2)
		assert.Equal(t, "SHOP", grid.Records[0].Fields[columns.RoleDescription])
		assert.Equal(t, "CAFE", grid.Records[1].Fields[columns.RoleDescription])
	})

	t.Run("retries clustering at wide tolerance", func(t *testing.T) {
		items := []pdftext.Item{
			item("Date", 40, 700, 1),
			item("Details", 150, 694, 1),
			item("Amount", 350, 698, 1),

			item("01/02/2024", 42, 650, 1),
			item("SHOP", 150, 650, 1),
			item("9.99", 350, 650, 1),
		}
		grid, err := NewReconstructor(nil).Reconstruct(items)
		require.NoError(t, err)
		require.Len(t, grid.Records, 1)
	})

	t.Run("no structure yields ErrNoTable", func(t *testing.T) {
		items := []pdftext.Item{
			item("hello", 10, 700, 1),
			item("world", 10, 680, 1),
		}
		_, err := NewReconstructor(nil).Reconstruct(items)
		assert.ErrorIs(t, err, ErrNoTable)
	})
}
