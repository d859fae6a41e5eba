package sstv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModeClassification(t *testing.T) {
	table := NewModeTable(15000)
	m1, ok := table.ByName("Martin M1")
	require.True(t, ok)

	nominal := int64(m1.SamplesPerLine) >> 8
	got, ok := table.ClassifyLineLength(nominal)
	require.True(t, ok)
	require.Equal(t, "Martin M1", got.Name)
}

func TestModeClassificationRejectsOutOfWindow(t *testing.T) {
	table := NewModeTable(15000)
	_, ok := table.ClassifyLineLength(1)
	require.False(t, ok)
}

func TestModeClassificationPicksClosest(t *testing.T) {
	table := NewModeTable(15000)
	for _, m := range table.Modes() {
		nominal := int64(m.SamplesPerLine) >> 8
		got, ok := table.ClassifyLineLength(nominal)
		require.True(t, ok, "mode %s", m.Name)
		require.Equal(t, m.Name, got.Name)
	}
}

func TestByVISRoundTrip(t *testing.T) {
	table := NewModeTable(15000)
	for _, m := range table.Modes() {
		got, ok := table.ByVIS(m.VIS)
		require.True(t, ok)
		require.Equal(t, m.Name, got.Name)
	}
}
