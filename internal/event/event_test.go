package event

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const txA = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func TestDecodeNDJSONKeepsBigNumbersExact(t *testing.T) {
	in := `
# 注释行
{"contract":"BountyEscrow","kind":"FundsDeposited","blockNumber":3,"blockTimestamp":100,"txHash":"` + txA + `","txIndex":0,"logIndex":2,"params":[{"name":"questId","type":"uint256","value":7},{"name":"amount","type":"uint256","value":"115792089237316195423570985008687907853269984665640564039457584007913129639935"},{"name":"ok","type":"bool","value":true}]}
`
	events, err := DecodeNDJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, events, 1)

	evt := events[0]
	assert.Equal(t, strings.ToLower(txA), evt.TxHash)
	assert.Equal(t, Position{BlockNumber: 3, LogIndex: 2}, evt.Position())

	q, err := evt.Int64("questId")
	require.NoError(t, err)
	assert.EqualValues(t, 7, q)

	amt, err := evt.Decimal("amount")
	require.NoError(t, err)
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", amt.String())

	ok, err := evt.Bool("ok")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDecodeNDJSONRejectsBrokenLine(t *testing.T) {
	_, err := DecodeNDJSON(strings.NewReader("{\"contract\":\n"))
	require.Error(t, err)

	_, err = DecodeNDJSON(strings.NewReader(`{"contract":"X","kind":"Y","txHash":"0x12"}`))
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := []Event{{
		Contract: "UserProfile", Kind: "ReputationUpdated", TxHash: strings.ToLower(txA),
		BlockNumber: 9, BlockTimestamp: 55, LogIndex: 1,
		Params: []Param{{Name: "user", Type: "address", Value: "0x00000000000000000000000000000000000000aa"}, {Name: "newReputation", Type: "uint256", Value: "42"}},
	}}
	var buf bytes.Buffer
	require.NoError(t, EncodeNDJSON(&buf, src))

	got, err := DecodeNDJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestAccessorErrors(t *testing.T) {
	evt := Event{Params: []Param{
		{Name: "user", Value: "not-an-address"},
		{Name: "n", Value: "-3"},
		{Name: "flag", Value: "maybe"},
	}}

	_, err := evt.Address("user")
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = evt.BigInt("n")
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = evt.Bool("flag")
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = evt.Text("missing")
	assert.ErrorIs(t, err, ErrBadPayload)
	assert.True(t, errors.Is(err, ErrMissingParam))

	assert.Equal(t, "", evt.OptionalText("missing"))
}

func TestPositionOrdering(t *testing.T) {
	events := []Event{
		{BlockNumber: 2, TxIndex: 0, LogIndex: 0, Kind: "c"},
		{BlockNumber: 1, TxIndex: 1, LogIndex: 0, Kind: "b"},
		{BlockNumber: 1, TxIndex: 0, LogIndex: 5, Kind: "a"},
	}
	Sort(events)
	assert.Equal(t, "a", events[0].Kind)
	assert.Equal(t, "b", events[1].Kind)
	assert.Equal(t, "c", events[2].Kind)

	p := Position{BlockNumber: 1, TxIndex: 0, LogIndex: 5}
	assert.True(t, p.Less(events[1].Position()))
	assert.Equal(t, 0, p.Compare(events[0].Position()))
	assert.Equal(t, "1/0/5", p.String())
}
