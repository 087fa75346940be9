package parsers

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestParseLedgerCSV(t *testing.T) {
	in := strings.Join([]string{
		"Date,USD Spent,BTC Price in USD,BTC Bought",
		"2023-01-01,$100.00,\"$20,000.00\",0.005₿",
		"2023-01-02,250.50,21500.12345678,0.01",
	}, "\n")

	parser, err := GetParser("")
	require.NoError(t, err)

	results, err := parser.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	require.NoError(t, first.Err)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "2023-01-01", first.Purchase.Date.Format("2006-01-02"))
	assert.True(t, first.Purchase.USDSpent.Equal(dec("100.00")))
	assert.True(t, first.Purchase.BTCPrice.Equal(dec("20000.00")))
	assert.Equal(t, int64(500000), first.Purchase.Satoshis)

	second := results[1]
	require.NoError(t, second.Err)
	assert.Equal(t, int64(1000000), second.Purchase.Satoshis)
}

func TestParseSkipsMalformedRows(t *testing.T) {
	in := strings.Join([]string{
		"Date,USD Spent,BTC Price in USD,BTC Bought",
		"2023-01-01,$100.00,$20000.00,0.005₿",
		"garbage,row,here,nope",
	}, "\n")

	parser := NewLedgerParser()
	results, err := parser.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Purchase)
}

func TestParseRejectsFractionalSatoshis(t *testing.T) {
	in := strings.Join([]string{
		"Date,USD Spent,BTC Price in USD,BTC Bought",
		"2023-01-01,100.00,20000.00,0.000000015",
	}, "\n")

	results, err := NewLedgerParser().Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestParseHeaderOrderIndependent(t *testing.T) {
	in := strings.Join([]string{
		"BTC Bought,Date,BTC Price in USD,USD Spent",
		"0.005,2023-01-01,20000.00,100.00",
	}, "\n")

	results, err := NewLedgerParser().Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, int64(500000), results[0].Purchase.Satoshis)
}

func TestParseMissingColumnFails(t *testing.T) {
	in := "Date,USD Spent\n2023-01-01,100.00\n"
	_, err := NewLedgerParser().Parse(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BTC Price in USD")
}

func TestGetParserUnknownSource(t *testing.T) {
	_, err := GetParser("degiro")
	assert.Error(t, err)
}
