package dossier

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

// NormalizeToUTF8 converts template bytes saved by external editors into plain
// UTF-8. BOM markers are stripped; UTF-16 variants are transcoded.
func NormalizeToUTF8(data []byte) ([]byte, error) {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}):
		logger.Debug("stripping UTF-8 BOM from template")
		return data[3:], nil

	case len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xFE}):
		logger.Debug("transcoding template from UTF-16LE")
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, err := decoder.Bytes(data)
		if err != nil {
			return nil, types.NewAppError(types.ErrTemplate, "failed to decode UTF-16LE template", err)
		}
		return decoded, nil

	case len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFE, 0xFF}):
		logger.Debug("transcoding template from UTF-16BE")
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		decoded, err := decoder.Bytes(data)
		if err != nil {
			return nil, types.NewAppError(types.ErrTemplate, "failed to decode UTF-16BE template", err)
		}
		return decoded, nil
	}

	if !utf8.Valid(data) {
		return nil, types.NewAppError(types.ErrTemplate, "template is not valid UTF-8", nil)
	}
	return data, nil
}
