package postgres

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestBigArgAndParseBig(t *testing.T) {
	assert.Nil(t, bigArg(nil))

	x, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457", 10)
	arg, ok := bigArg(x).(string)
	require.True(t, ok)

	back, err := parseBig(&arg)
	require.NoError(t, err)
	assert.Zero(t, x.Cmp(back))

	null, err := parseBig(nil)
	require.NoError(t, err)
	assert.Nil(t, null)

	_, err = parseBig(strp("not a number"))
	require.Error(t, err)
}

func TestBigsArgAndParseBigs(t *testing.T) {
	in := []*big.Int{big.NewInt(1), big.NewInt(0), new(big.Int).Lsh(big.NewInt(1), 128)}
	arr := bigsArg(in)
	require.Len(t, arr, 3)

	out, err := parseBigs(arr)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range in {
		assert.Zero(t, in[i].Cmp(out[i]), "index %d", i)
	}
}

func TestDecArgRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("1234.567890123456")
	s := decArg(d)
	back, err := parseDec(&s)
	require.NoError(t, err)
	assert.True(t, d.Equal(back))

	zero, err := parseDec(nil)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestStrArrNeverNil(t *testing.T) {
	assert.NotNil(t, strArr(nil))
	assert.Empty(t, strArr(nil))
	assert.Equal(t, []string{"a"}, strArr([]string{"a"}))
}
