package main

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/WalletAdvisor/models"
)

func TestParseWei(t *testing.T) {
	v, err := parseWei("1000", "", 18)
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1000).Cmp(v))

	v, err = parseWei("0x3e8", "", 18)
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1000).Cmp(v))

	v, err = parseWei("", "1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = parseWei("", "25", 9)
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(25e9).Cmp(v))

	v, err = parseWei("", "", 18)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = parseWei("1", "1", 18)
	assert.Error(t, err)
	_, err = parseWei("lots", "", 18)
	assert.Error(t, err)
	_, err = parseWei("", "-1", 18)
	assert.Error(t, err)
}

func TestParseUrgencyAndRisk(t *testing.T) {
	u, err := parseUrgency("high")
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyHigh, u)
	_, err = parseUrgency("asap")
	assert.Error(t, err)

	l, err := parseRiskLevel("low")
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, l)
	_, err = parseRiskLevel("run_away")
	assert.Error(t, err)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"rsi_buy=30", "rsi_sell=70.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"rsi_buy": 30, "rsi_sell": 70.5}, params)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseParams([]string{"k=abc"})
	assert.Error(t, err)
}
