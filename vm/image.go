package vm

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Program images: CBOR serialization of compiled programs
// ---------------------------------------------------------------------------

// ImageVersion is the current image format version. Readers reject images
// with any other version.
const ImageVersion = 1

// cborEncMode uses canonical options so identical programs encode to
// identical bytes, which the content-addressed store relies on.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// programImage is the wire form of a Program. Primitives cannot be
// serialized as functions, so the image stores their registry names and
// the reader re-resolves them.
type programImage struct {
	Version uint32   `cbor:"version"`
	Code    []byte   `cbor:"code"`
	Prims   []string `cbor:"prims"`
}

// MarshalProgram serializes a program to CBOR bytes.
func MarshalProgram(p *Program) ([]byte, error) {
	img := programImage{
		Version: ImageVersion,
		Code:    p.Code(),
		Prims:   p.PrimNames(),
	}
	return cborEncMode.Marshal(&img)
}

// UnmarshalProgram deserializes a program from CBOR bytes, resolving its
// primitive names against the given registry.
func UnmarshalProgram(data []byte, reg *Registry) (*Program, error) {
	var img programImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal program: %w", err)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("vm: unsupported image version %d", img.Version)
	}

	prims := make([]RuntimeFn, len(img.Prims))
	for idx, name := range img.Prims {
		fn, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("vm: image references unknown primitive %q", name)
		}
		prims[idx] = fn
	}

	return NewProgram(img.Code, prims, img.Prims), nil
}

// WriteImageFile marshals a program and writes it to path.
func WriteImageFile(path string, p *Program) error {
	data, err := MarshalProgram(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadImageFile reads and unmarshals a program image from path.
func ReadImageFile(path string, reg *Registry) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalProgram(data, reg)
}
