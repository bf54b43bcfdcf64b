//go:build !windows

package d3d11link

import (
	"testing"

	"github.com/prismfx/effectc/effectir"
)

func TestLink_UnsupportedOffWindows(t *testing.T) {
	m := effectir.NewModule()
	_, err := Link(m, "", &Runtime{})
	if err != ErrUnsupportedPlatform {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}
