package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldDiacritics(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Đà Nẵng", "Da Nang"},
		{"đường Nguyễn Văn Linh", "duong Nguyen Van Linh"},
		{"Hải Châu", "Hai Chau"},
		{"no diacritics", "no diacritics"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldDiacritics(tt.in))
	}
}

func TestSimplifyAddress(t *testing.T) {
	got := simplifyAddress("35 Thái Phiên, Phước Ninh, Hải Châu", "Đà Nẵng, Vietnam")
	assert.Equal(t, "35 Thái Phiên, Da Nang, Vietnam", got)

	// No comma: the whole address is the first segment.
	got = simplifyAddress("35 Thái Phiên", "Đà Nẵng, Vietnam")
	assert.Equal(t, "35 Thái Phiên, Da Nang, Vietnam", got)
}
