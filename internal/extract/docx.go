package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

const (
	docxBody = "word/document.xml"
	docxCore = "docProps/core.xml"
)

type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

type docxProperties struct {
	Title string `xml:"title"`
}

func extractDocx(_ string, data []byte) (Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("%w: not a docx archive", domain.ErrInvalidInput)
	}

	body, err := readZipEntry(reader, docxBody)
	if err != nil {
		return Document{}, err
	}
	var doc docxDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, docxBody, err)
	}

	paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t)
			}
		}
		paragraphs = append(paragraphs, b.String())
	}

	out := Document{Text: strings.TrimSpace(strings.Join(paragraphs, "\n"))}
	if core, err := readZipEntry(reader, docxCore); err == nil {
		var props docxProperties
		if xml.Unmarshal(core, &props) == nil {
			out.Title = strings.TrimSpace(props.Title)
		}
	}
	return out, nil
}

var errEntryMissing = errors.New("entry missing")

func readZipEntry(reader *zip.Reader, name string) ([]byte, error) {
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, name, errEntryMissing)
}
