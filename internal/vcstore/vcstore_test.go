package vcstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutAllocatesRevisionOnChange(t *testing.T) {
	s := New()
	rev1, err := s.Put("/test.txt", []byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 1, rev1)

	rev2, err := s.Put("/test.txt", []byte("world"))
	assert.NoError(t, err)
	assert.Equal(t, 2, rev2)
}

func TestPutIsNoOpWhenContentUnchanged(t *testing.T) {
	s := New()
	rev1, _ := s.Put("/test.txt", []byte("hello"))
	rev2, _ := s.Put("/test.txt", []byte("hello"))
	assert.Equal(t, rev1, rev2)
}

func TestGetLatestAndSpecificRevision(t *testing.T) {
	s := New()
	s.Put("/test.txt", []byte("v1"))
	s.Put("/test.txt", []byte("v2"))

	latest, err := s.Get("/test.txt", 0)
	assert.NoError(t, err)
	assert.Equal(t, []byte("v2"), latest)

	first, err := s.Get("/test.txt", 1)
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), first)
}

func TestGetUnknownFile(t *testing.T) {
	s := New()
	_, err := s.Get("/missing.txt", 0)
	assert.Error(t, err)
}

func TestGetUnknownRevision(t *testing.T) {
	s := New()
	s.Put("/test.txt", []byte("v1"))
	_, err := s.Get("/test.txt", 5)
	assert.Error(t, err)
}

func TestPutRejectsIllegalPath(t *testing.T) {
	s := New()
	_, err := s.Put("relative.txt", []byte("x"))
	assert.Error(t, err)

	_, err = s.Put("/../escape.txt", []byte("x"))
	assert.Error(t, err)
}

func TestListShowsFilesAndSubdirs(t *testing.T) {
	s := New()
	s.Put("/a.txt", []byte("1"))
	s.Put("/sub/b.txt", []byte("2"))

	entries := s.List("/")
	names := map[string]int{}
	for _, e := range entries {
		names[e.Name] = e.Rev
	}
	assert.Equal(t, 1, names["a.txt"])
	assert.Equal(t, 0, names["sub/"])
}

func TestParseRevision(t *testing.T) {
	rev, err := ParseRevision("r3")
	assert.NoError(t, err)
	assert.Equal(t, 3, rev)

	rev, err = ParseRevision("7")
	assert.NoError(t, err)
	assert.Equal(t, 7, rev)
}
