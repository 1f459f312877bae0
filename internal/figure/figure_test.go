package figure

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitled(t *testing.T) {
	f := Titled("Error updating map")
	assert.Equal(t, "Error updating map", f.Title())
	assert.Empty(t, f.Data)

	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"layout":{"title":{"text":"Error updating map"}}}`, string(b))
}

func TestFigureTitle_Unset(t *testing.T) {
	assert.Empty(t, New(Layout{}).Title())
}

func TestNumber_MarshalNaNAsNull(t *testing.T) {
	b, err := json.Marshal(Numbers([]float64{1.5, math.NaN(), math.Inf(1), 4}))
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5,null,null,4]`, string(b))
}

func TestTrace_OmitsUnsetAttributes(t *testing.T) {
	f := New(Layout{Margin: ZeroMargin()})
	f.Add(Trace{
		Type:       TypeScatterMapbox,
		Mode:       "lines",
		Lat:        Numbers([]float64{1, 2}),
		Lon:        Numbers([]float64{3, 4}),
		Line:       &Line{Width: 1, Color: "black"},
		ShowLegend: Bool(false),
		HoverInfo:  "none",
	})

	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data":[{"type":"scattermapbox","mode":"lines","lat":[1,2],"lon":[3,4],
		         "hoverinfo":"none","line":{"width":1,"color":"black"},"showlegend":false}],
		"layout":{"margin":{"r":0,"t":0,"l":0,"b":0}}
	}`, string(b))
}

func TestSolidScale(t *testing.T) {
	b, err := json.Marshal(SolidScale("#FF6200"))
	require.NoError(t, err)
	assert.JSONEq(t, `[[0,"#FF6200"],[1,"#FF6200"]]`, string(b))
}
