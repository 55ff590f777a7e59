package noaa

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/haulplan/core/model"
)

const annualSample = `NOAA Tide Predictions
Station ID: 8445138 Scituate
Date 		Day	Time		Pred(Ft)	Pred(cm)	High/Low
2025/05/10	Sat	02:30 AM	9.51	290	H
2025/05/10	Sat	08:41 AM	0.30	9	L
2025/05/10	Sat	02:30 PM	10.02	305	H
2025/05/10	Sat	garbage
2025/05/10	Sat	08:50 PM	-0.20	-6	L
2025/13/40	Sat	08:50 PM	1.00	30	L
`

func TestParseAnnual(t *testing.T) {
	evs, err := ParseAnnual(strings.NewReader(annualSample), "8445138")
	require.NoError(t, err)
	require.Len(t, evs, 4)
	assert.Equal(t, time.Date(2025, 5, 10, 2, 30, 0, 0, time.UTC), evs[0].Time)
	assert.Equal(t, time.Date(2025, 5, 10, 14, 30, 0, 0, time.UTC), evs[2].Time)
	assert.Equal(t, model.TideHigh, evs[2].Type)
	assert.Equal(t, 10.02, evs[2].Height)
	assert.Equal(t, time.Date(2025, 5, 10, 20, 50, 0, 0, time.UTC), evs[3].Time)
	assert.Equal(t, "8445138", evs[3].Station)
}

func TestParseAnnualRoundTrip(t *testing.T) {
	first, err := ParseAnnual(strings.NewReader(annualSample), "8445138")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAnnual(&buf, "8445138", first))
	second, err := ParseAnnual(&buf, "8445138")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnnualFile(t *testing.T) {
	dir := t.TempDir()
	evs := []model.TideEvent{
		{Station: "x", Time: time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC), Type: model.TideHigh, Height: 9.1},
		{Station: "x", Time: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), Type: model.TideLow, Height: 0.5},
	}
	require.NoError(t, WriteAnnualFile(dir, "x", 2025, evs))
	got, err := ReadAnnualFile(dir, "x", 2025)
	require.NoError(t, err)
	assert.Equal(t, evs, got)
	assert.Equal(t, dir+"/x_2025.txt", AnnualPath(dir, "x", 2025))
}
