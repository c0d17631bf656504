package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/born-ml/flexnet/internal/activation"
	"github.com/born-ml/flexnet/internal/graph"
	"github.com/born-ml/flexnet/internal/transform"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoundTrip tests that a decoded pipeline, nested stages included,
// computes the same output as the trained original.
func TestRoundTrip(t *testing.T) {
	g := graph.New()
	in := g.NewLayer(2, 0, activation.Identity)
	hid := g.NewLayer(3, 0.2, activation.Sigmoid)
	out := g.NewLayer(2, 0, activation.Identity)
	require.NoError(t, g.ConnectLayer(in, hid, 0.4))
	require.NoError(t, g.ConnectLayer(hid, out, -0.6))
	require.NoError(t, g.SetInputLayer(in))
	require.NoError(t, g.SetOutputLayer(out))

	p := New(g, New(transform.New(transform.Identity)), transform.New(transform.SoftMax))
	for i := 0; i < 25; i++ {
		_, err := p.Forward([]float64{0.3, 0.9})
		require.NoError(t, err)
		require.NoError(t, p.Train([]float64{0.7, 0.3}, 0.05))
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	decoded := New()
	require.NoError(t, json.Unmarshal(data, decoded))
	require.Equal(t, 3, decoded.Len())

	kind, err := KindOf(decoded.Stage(1))
	require.NoError(t, err)
	assert.Equal(t, KindPipeline, kind)

	want, err := p.Forward([]float64{-1, 2})
	require.NoError(t, err)
	got, err := decoded.Forward([]float64{-1, 2})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestRecordShape(t *testing.T) {
	p := New(transform.New(transform.Fraction), New())

	rec, err := p.Record()
	require.NoError(t, err)

	want := Record{
		Types: []Kind{KindTransform, KindPipeline},
		Data: []json.RawMessage{
			json.RawMessage(`{"fs_fn":"Fraction"}`),
			json.RawMessage(`{"types":[],"data":[]}`),
		},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

// TestDecodeLegacy tests the older layout, where stage tags have their
// former names and every payload is a JSON string.
func TestDecodeLegacy(t *testing.T) {
	graphPayload := `{"ns":[{"id":0,"i_id":[],"i_w":[],"b":0,"a_fn":"DoNothing"},` +
		`{"id":1,"i_id":[],"i_w":[],"b":0,"a_fn":"DoNothing"},` +
		`{"id":2,"i_id":[0,1],"i_w":[1,2],"b":0,"a_fn":"DoNothing"},` +
		`{"id":3,"i_id":[0,1],"i_w":[2,1],"b":0,"a_fn":"DoNothing"}],` +
		`"i_id":[0,1],"o_id":[2,3],"l_len":{"0":2,"2":2}}`
	fnPayload := `{"fs_fn":"Fraction"}`

	legacy, err := json.Marshal(map[string]any{
		"types": []string{"FlexibleNetwork", "FunctionSegment"},
		"data":  []string{graphPayload, fnPayload},
	})
	require.NoError(t, err)

	p := New()
	require.NoError(t, json.Unmarshal(legacy, p))
	require.Equal(t, 2, p.Len())

	out, err := p.Forward([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, out)

	_, isGraph := p.Stage(0).(*graph.Graph)
	assert.True(t, isGraph)
}

func TestDecodeNestedLegacyTag(t *testing.T) {
	data := `{"types":["MultiSegNetwork"],"data":["{\"types\":[\"Transform\"],\"data\":[{\"fs_fn\":\"SoftMax\"}]}"]}`

	p := New()
	require.NoError(t, json.Unmarshal([]byte(data), p))

	inner, ok := p.Stage(0).(*Pipeline)
	require.True(t, ok)
	require.Equal(t, 1, inner.Len())
	assert.Equal(t, transform.SoftMax, inner.Stage(0).(*transform.Stage).Func())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"length mismatch", `{"types":["Graph"],"data":[]}`, ErrInvalidRecord},
		{"unknown tag", `{"types":["Tree"],"data":[{}]}`, ErrUnknownStage},
		{"bad graph", `{"types":["Graph"],"data":[{"ns":[{"id":3,"i_id":[],"i_w":[]}]}]}`, graph.ErrInvalidRecord},
		{"bad function", `{"types":["Transform"],"data":[{"fs_fn":"Cube"}]}`, transform.ErrUnknownFunc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			err := json.Unmarshal([]byte(tt.data), p)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, p.Len())
		})
	}
}
