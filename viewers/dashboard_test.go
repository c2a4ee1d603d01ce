package viewers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feedstats "github.com/anatolykoptev/go-feedstats"
)

var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func at(ago time.Duration, count int) feedstats.TimestampedCount {
	return feedstats.TimestampedCount{Timestamp: now.Add(-ago).UnixMilli(), Count: count}
}

func TestWindow(t *testing.T) {
	samples := []feedstats.TimestampedCount{
		at(2*time.Hour, 1),
		at(time.Hour, 2),
		at(30*time.Minute, 3),
		at(0, 4),
	}

	got := Window(samples, now, time.Hour)
	assert.Equal(t, []feedstats.TimestampedCount{at(time.Hour, 2), at(30*time.Minute, 3), at(0, 4)}, got)

	assert.Empty(t, Window(nil, now, time.Hour))
}

func TestBin(t *testing.T) {
	samples := []feedstats.TimestampedCount{
		at(3*time.Hour, 100), // outside the window
		at(119*time.Minute, 10),
		at(110*time.Minute, 11),
		at(30*time.Minute, 40),
	}

	got := Bin(samples, now, 2*time.Hour, time.Hour)
	require.Len(t, got, 2)
	assert.Equal(t, now.Add(-2*time.Hour).UnixMilli(), got[0].Timestamp)
	assert.Equal(t, 11, got[0].Count, "mean of 10 and 11 rounds half up")
	assert.Equal(t, now.Add(-time.Hour).UnixMilli(), got[1].Timestamp)
	assert.Equal(t, 40, got[1].Count)
}

func TestBuildDashboard(t *testing.T) {
	samples := []feedstats.TimestampedCount{
		at(3*24*time.Hour, 7),
		at(90*time.Second, 20),
		at(30*time.Second, 30),
	}

	d := BuildDashboard("main", samples, now, DefaultViews)
	assert.Equal(t, "main", d.Series)
	assert.Equal(t, 30, d.Current)
	assert.Equal(t, samples[2].Timestamp, d.Updated)

	assert.Len(t, d.Views["hour"], 60)
	assert.Len(t, d.Views["day"], 24)
	assert.Len(t, d.Views["week"], 7)
	assert.Len(t, d.Views["month"], 30)

	hour := d.Views["hour"]
	assert.Equal(t, 20, hour[58].Count)
	assert.Equal(t, 30, hour[59].Count)
	assert.Equal(t, 25, d.Views["day"][23].Count)

	week := d.Views["week"]
	assert.Equal(t, 7, week[4].Count)
	assert.Equal(t, 25, week[6].Count)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := BuildDashboard("main", nil, now, DefaultViews)
	assert.Zero(t, d.Current)
	for _, v := range DefaultViews {
		require.Contains(t, d.Views, v.Name)
		for _, b := range d.Views[v.Name] {
			assert.Zero(t, b.Count)
		}
	}
}

func TestViewByName(t *testing.T) {
	v, err := ViewByName("week")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, v.BinSize)

	_, err = ViewByName("year")
	assert.Error(t, err)
}

func TestView_Validate(t *testing.T) {
	for _, v := range DefaultViews {
		assert.NoError(t, v.Validate(), v.Name)
	}

	tests := []struct {
		name    string
		view    View
		wantErr bool
	}{
		{"exactly max bins", View{BinSize: time.Second, Span: MaxBins * time.Second}, false},
		{"partial last bin counts", View{BinSize: time.Second, Span: MaxBins*time.Second + time.Millisecond}, true},
		{"millisecond bins over hours", View{BinSize: time.Millisecond, Span: 2 * time.Hour}, true},
		{"sub-millisecond bin", View{BinSize: time.Microsecond, Span: time.Second}, true},
		{"zero span", View{BinSize: time.Minute}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.view.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
