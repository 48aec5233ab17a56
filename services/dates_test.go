package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"01/01/2019", Date{2019, time.January, 1}},
		{"25/05/2020", Date{2020, time.May, 25}},
		{"2020-01-01", Date{2020, time.January, 1}},
		{"1 January 2020", Date{2020, time.January, 1}},
		{"27 April 2020", Date{2020, time.April, 27}},
	}
	for _, c := range cases {
		got, err := ParseDate(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestParseDateDayFirstWinsOverMonthFirst(t *testing.T) {
	// "02/03/2019" ist der 2. März, nicht der 3. Februar.
	got, err := ParseDate("02/03/2019")
	require.NoError(t, err)
	assert.Equal(t, Date{2019, time.March, 2}, got)
}

func TestParseDateUnknownFormat(t *testing.T) {
	_, err := ParseDate("March 5th, 2019")
	require.Error(t, err)

	var dateErr *DateFormatError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "March 5th, 2019", dateErr.Value)
	assert.Len(t, dateErr.Layouts, 3)
	assert.Contains(t, err.Error(), "March 5th, 2019")
}

func TestParseDateRejectsEmpty(t *testing.T) {
	_, err := ParseDate("")
	assert.Error(t, err)
}

func TestFormatDateRoundTrip(t *testing.T) {
	d := Date{2020, time.May, 25}
	for _, layout := range []string{"02/01/2006", "2006-01-02", "2 January 2006"} {
		rendered := FormatDate(d, layout)
		parsed, err := ParseDate(rendered)
		require.NoError(t, err, "layout %q rendered %q", layout, rendered)
		assert.Equal(t, d, parsed, "layout %q", layout)
	}
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "2019-01-01", Date{2019, time.January, 1}.String())
	assert.Equal(t, "2020-11-05", Date{2020, time.November, 5}.String())
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := Date{2020, time.January, 1}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2020-01-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)
}

func TestDateBefore(t *testing.T) {
	assert.True(t, Date{2019, time.December, 31}.Before(Date{2020, time.January, 1}))
	assert.True(t, Date{2020, time.January, 1}.Before(Date{2020, time.February, 1}))
	assert.False(t, Date{2020, time.January, 1}.Before(Date{2020, time.January, 1}))
}
