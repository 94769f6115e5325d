package render

import (
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"

	"divecenter/internal/domain/certificate"
)

const (
	logoFilename      = "logo.png"
	signatureFilename = "signature.png"
)

// LoadAssets reads the certificate logo and signature images from dir and
// returns them base64-encoded for inlining. Missing files are tolerated: the
// certificate template renders a plain signature line when no signature image
// exists, and an absent logo is simply omitted.
func LoadAssets(dir string) certificate.Assets {
	return certificate.Assets{
		LogoBase64:      loadImage(dir, logoFilename),
		SignatureBase64: loadImage(dir, signatureFilename),
	}
}

func loadImage(dir, name string) string {
	if dir == "" {
		return ""
	}
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("asset_read_failed", "path", path, "error", err)
		}
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}
