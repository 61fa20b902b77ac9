package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"garage_config/internal/domain"

	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json"; empty means YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, s)
}

// FormatFromContentType maps a request Content-Type to a format, defaulting
// to YAML for anything that is not JSON.
func FormatFromContentType(contentType string) Format {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return FormatJSON
	}
	return FormatYAML
}

func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/yaml"
}

func (f Format) Extension() string {
	return string(f)
}

func EncodeExport(doc domain.ExportDocument, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, f)
}

func DecodeExport(data []byte, f Format) (domain.ExportDocument, error) {
	var doc domain.ExportDocument
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return doc, fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return doc, fmt.Errorf("%w: cannot parse %s config: %v", domain.ErrInvalidGarage, f, err)
	}
	return doc, nil
}

// ExportFile is a rendered config ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (s *GarageService) Export(ctx context.Context, id string, f Format) (*ExportFile, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := EncodeExport(domain.NewExportDocument(g), f)
	if err != nil {
		return nil, fmt.Errorf("GarageService.Export: %w", err)
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("garage-%s.%s", g.ID, f.Extension()),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// Import creates a new garage from an exported config. The garage_id in the
// file is ignored.
func (s *GarageService) Import(ctx context.Context, data []byte, f Format) (*domain.Garage, error) {
	doc, err := DecodeExport(data, f)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, doc.ToDTO())
}
