package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                        string
		threshold, mode, resolution string
		want                        Options
		wantErr                     bool
	}{
		{name: "defaults", want: DefaultOptions()},
		{
			name:      "all set",
			threshold: "0.25", mode: "MULTI", resolution: "high",
			want: Options{Threshold: 0.25, Mode: ModeMulti, Resolution: ResolutionHigh},
		},
		{name: "zero threshold", threshold: "0", want: Options{Threshold: 0, Mode: ModeSingle, Resolution: ResolutionMedium}},
		{name: "one threshold", threshold: "1.00", want: Options{Threshold: 1, Mode: ModeSingle, Resolution: ResolutionMedium}},
		{name: "threshold above range", threshold: "1.01", wantErr: true},
		{name: "negative threshold", threshold: "-0.1", wantErr: true},
		{name: "threshold not a number", threshold: "abc", wantErr: true},
		{name: "NaN threshold", threshold: "NaN", wantErr: true},
		{name: "unknown mode", mode: "crowd", wantErr: true},
		{name: "unknown resolution", resolution: "ultra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseOptions(tt.threshold, tt.mode, tt.resolution, DefaultOptions())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOptions)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptions_String(t *testing.T) {
	o := Options{Threshold: 0.5, Mode: ModeMulti, Resolution: ResolutionLow}
	assert.Equal(t, "threshold=0.50 mode=multi resolution=low", o.String())
}
