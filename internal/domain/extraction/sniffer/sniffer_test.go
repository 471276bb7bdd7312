package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConfig(t *testing.T) {
	t.Run("plain comma separated", func(t *testing.T) {
		data := []byte("Date,Description,Amount,Balance\n25/03/2024,COFFEE,-4.50,995.50\n")
		cfg, err := DetectConfig(data)
		require.NoError(t, err)
		assert.Equal(t, ',', int32(cfg.Delimiter))
		assert.Equal(t, 0, cfg.SkipLines)
		assert.Equal(t, []string{"Date", "Description", "Amount", "Balance"}, cfg.Headers)
		assert.Len(t, cfg.SampleRows, 1)
	})

	t.Run("metadata lines before header", func(t *testing.T) {
		data := []byte("Account Statement\nSort Code: 01-02-03\n\nDate,Transaction Details,Money Out,Money In,Balance\n25/03/2024,TESCO,12.00,,988.00\n26/03/2024,SALARY,,2000.00,2988.00\n")
		cfg, err := DetectConfig(data)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.SkipLines)
		assert.Equal(t, "Transaction Details", cfg.Headers[1])
		assert.Len(t, cfg.SampleRows, 2)
	})

	t.Run("semicolon delimiter", func(t *testing.T) {
		data := []byte("Date;Description;Amount\n25/03/2024;SHOP;-1.00\n")
		cfg, err := DetectConfig(data)
		require.NoError(t, err)
		assert.Equal(t, ';', int32(cfg.Delimiter))
	})

	t.Run("BOM stripped from first header", func(t *testing.T) {
		data := []byte("\uFEFFDate,Amount\n25/03/2024,-1.00\n")
		cfg, err := DetectConfig(data)
		require.NoError(t, err)
		assert.Equal(t, "Date", cfg.Headers[0])
	})

	t.Run("explicit header row override", func(t *testing.T) {
		data := []byte("junk junk junk\nDate,Amount\n25/03/2024,-1.00\n")
		cfg, err := DetectConfigWithOptions(data, &DetectOptions{HeaderRowIndex: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.SkipLines)
		assert.Equal(t, []string{"Date", "Amount"}, cfg.Headers)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := DetectConfig(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("no headers", func(t *testing.T) {
		_, err := DetectConfig([]byte("just some prose\nwith no structure\n"))
		assert.ErrorIs(t, err, ErrNoHeadersFound)
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"Date", "Amount"})
	b := Fingerprint([]string{"date", "AMOUNT"})
	c := Fingerprint([]string{"Date", "Balance"})

	assert.Equal(t, a, b, "fingerprint is case-insensitive")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
