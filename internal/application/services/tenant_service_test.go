package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme GmbH", "acme-gmbh"},
		{"  Padded  Name  ", "padded-name"},
		{"Müller & Söhne", "m-ller-s-hne"},
		{"UPPER", "upper"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}
