package s3url

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Location
	}{
		{
			name: "virtual hosted with region",
			in:   "https://mybucket.s3.us-east-2.amazonaws.com/some/key.zarr/",
			want: Location{Bucket: "mybucket", Region: "us-east-2", Key: "some/key.zarr/"},
		},
		{
			name: "virtual hosted without region",
			in:   "https://mybucket.s3.amazonaws.com/some/key",
			want: Location{Bucket: "mybucket", Key: "some/key"},
		},
		{
			name: "path style",
			in:   "https://s3.us-west-2.amazonaws.com/mybucket/some/key",
			want: Location{Bucket: "mybucket", Region: "us-west-2", Key: "some/key"},
		},
		{
			name: "s3 scheme",
			in:   "s3://mybucket/some/key",
			want: Location{Bucket: "mybucket", Key: "some/key"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Parse(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParse_NotS3URL(t *testing.T) {
	cases := []string{
		"https://example.com/foo",
		"ftp://mybucket/key",
		"not a url at all \x7f",
	}
	for _, c := range cases {
		_, err := Parse(c)
		require.ErrorIs(t, err, ErrNotS3URL)
	}
}

func TestFirstParseable(t *testing.T) {
	urls := []string{
		"https://example.com/not-s3",
		"https://mybucket.s3.amazonaws.com/key",
	}
	loc, ok := FirstParseable(urls)
	require.True(t, ok)
	assert.Equal(t, "mybucket", loc.Bucket)

	_, ok = FirstParseable([]string{"https://example.com/nope"})
	assert.False(t, ok)
}
