package feedstats

import (
	"fmt"
	"sort"
	"time"
)

// CalendarUnit selects the bucketing of BinByCalendarUnit.
type CalendarUnit int

const (
	HourOfDay CalendarUnit = iota
	WeekDay
	Day
	Month
)

func (u CalendarUnit) String() string {
	switch u {
	case HourOfDay:
		return "hour"
	case WeekDay:
		return "weekday"
	case Day:
		return "day"
	case Month:
		return "month"
	default:
		return fmt.Sprintf("CalendarUnit(%d)", int(u))
	}
}

// ParseCalendarUnit maps "hour", "weekday", "day" and "month" to units.
func ParseCalendarUnit(s string) (CalendarUnit, error) {
	for _, u := range []CalendarUnit{HourOfDay, WeekDay, Day, Month} {
		if u.String() == s {
			return u, nil
		}
	}
	return 0, fmt.Errorf("unknown calendar unit %q", s)
}

// Locale supplies weekday and month labels.
type Locale struct {
	// Weekdays is indexed by time.Weekday, Sunday first.
	Weekdays [7]string
	Months   [12]string
}

var (
	German = Locale{
		Weekdays: [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		Months: [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni",
			"Juli", "August", "September", "Oktober", "November", "Dezember"},
	}
	English = Locale{
		Weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Months: [12]string{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
	}
)

// LocaleFor returns the locale for a language code, German by default.
func LocaleFor(lang string) Locale {
	if lang == "en" {
		return English
	}
	return German
}

// Binner buckets posts by calendar unit in a fixed location.
// The zero value bins in UTC with German labels.
type Binner struct {
	Location *time.Location
	Locale   *Locale
}

// BinByCalendarUnit buckets posts with the zero Binner.
func BinByCalendarUnit(posts []Post, unit CalendarUnit) []Bucket {
	return Binner{}.Bin(posts, unit)
}

// Bin buckets posts by unit.
//
// HourOfDay yields 24 buckets "0:00".."23:00" and WeekDay yields 7 buckets
// Monday..Sunday, both zero-filled. Day and Month yield one bucket per
// distinct period present, newest first. Posts keep their input order within
// a bucket.
func (b Binner) Bin(posts []Post, unit CalendarUnit) []Bucket {
	switch unit {
	case HourOfDay:
		buckets := make([]Bucket, 24)
		for i := range buckets {
			buckets[i].Label = fmt.Sprintf("%d:00", i)
		}
		for _, p := range posts {
			addToBucket(&buckets[b.local(p).Hour()], p)
		}
		return buckets

	case WeekDay:
		locale := b.locale()
		buckets := make([]Bucket, 7)
		for i := range buckets {
			buckets[i].Label = locale.Weekdays[(i+1)%7]
		}
		for _, p := range posts {
			addToBucket(&buckets[weekdaySlot(b.local(p).Weekday())], p)
		}
		return buckets

	case Day:
		return b.binByPeriod(posts, func(t time.Time) (int, string) {
			y, m, d := t.Date()
			return (y*100+int(m))*100 + d, t.Format("2006-01-02")
		})

	case Month:
		locale := b.locale()
		return b.binByPeriod(posts, func(t time.Time) (int, string) {
			y, m, _ := t.Date()
			return y*12 + int(m) - 1, fmt.Sprintf("%s %d", locale.Months[m-1], y)
		})

	default:
		panic(fmt.Sprintf("feedstats: unknown calendar unit %d", int(unit)))
	}
}

// weekdaySlot rotates Sunday-first weekday numbering to Monday-first slots.
func weekdaySlot(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func (b Binner) binByPeriod(posts []Post, key func(time.Time) (int, string)) []Bucket {
	type period struct {
		key    int
		bucket Bucket
	}
	byKey := make(map[int]*period)
	var periods []*period
	for _, p := range posts {
		k, label := key(b.local(p))
		pr, ok := byKey[k]
		if !ok {
			pr = &period{key: k, bucket: Bucket{Label: label}}
			byKey[k] = pr
			periods = append(periods, pr)
		}
		addToBucket(&pr.bucket, p)
	}
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].key > periods[j].key })

	buckets := make([]Bucket, len(periods))
	for i, pr := range periods {
		buckets[i] = pr.bucket
	}
	return buckets
}

func addToBucket(bucket *Bucket, p Post) {
	bucket.Posts = append(bucket.Posts, p)
	bucket.Count++
}

func (b Binner) local(p Post) time.Time {
	if b.Location == nil {
		return p.CreatedAt.UTC()
	}
	return p.CreatedAt.In(b.Location)
}

func (b Binner) locale() Locale {
	if b.Locale == nil {
		return German
	}
	return *b.Locale
}

// EngagementBucket is a month bucket with its summed favorites and retweets.
type EngagementBucket struct {
	Bucket
	Engagement int `json:"engagement"`
}

// EngagementByMonth sums favorites and retweets per month bucket, newest first.
func (b Binner) EngagementByMonth(posts []Post) []EngagementBucket {
	months := b.Bin(posts, Month)
	out := make([]EngagementBucket, len(months))
	for i, m := range months {
		out[i].Bucket = m
		for _, p := range m.Posts {
			out[i].Engagement += p.FavoriteCount + p.RetweetCount
		}
	}
	return out
}

// BinBySize averages series into consecutive binSizeMs buckets, one per bucket
// start in [startMs, endMs). A sample lands in bucket floor((timestamp-startMs)/binSizeMs);
// samples without a bucket are ignored. Each bucket reports the mean of its
// samples rounded half up, or 0 when empty. It panics if binSizeMs is not positive.
func BinBySize(series []TimestampedCount, binSizeMs, startMs, endMs int64) []TimestampedCount {
	if binSizeMs <= 0 {
		panic(fmt.Sprintf("feedstats: bin size must be positive, got %d", binSizeMs))
	}
	if endMs <= startMs {
		return []TimestampedCount{}
	}
	n := (endMs - startMs + binSizeMs - 1) / binSizeMs
	totals := make([]int64, n)
	samples := make([]int64, n)
	for _, s := range series {
		if s.Timestamp < startMs {
			continue
		}
		i := (s.Timestamp - startMs) / binSizeMs
		if i >= n {
			continue
		}
		totals[i] += int64(s.Count)
		samples[i]++
	}

	out := make([]TimestampedCount, n)
	for i := range out {
		out[i].Timestamp = startMs + int64(i)*binSizeMs
		if samples[i] > 0 {
			out[i].Count = int(roundedMean(totals[i], samples[i]))
		}
	}
	return out
}

// roundedMean returns total/n rounded half up.
func roundedMean(total, n int64) int64 {
	q := total / n
	r := total % n
	if r < 0 {
		r += n
		q--
	}
	if 2*r >= n {
		q++
	}
	return q
}
