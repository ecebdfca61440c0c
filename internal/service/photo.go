package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"hogis-registration/internal/model"
	"hogis-registration/pkg/blobstore"
	"hogis-registration/pkg/chunker"
	"hogis-registration/pkg/imaging"
)

// ErrPhotoIncomplete stored chunk rows do not match the recorded count
var ErrPhotoIncomplete = errors.New("stored photo is incomplete")

// photoStore places an encoded photo on a registration and reads it back.
// With a blob store the JPEG goes out of band; otherwise the data URI is
// chunked across the row and its overflow table.
type photoStore struct {
	blob      blobstore.Store
	chunkSize int
}

func newPhotoStore(blob blobstore.Store, chunkSize int) *photoStore {
	if chunkSize < 1 {
		chunkSize = chunker.DefaultSize
	}
	return &photoStore{blob: blob, chunkSize: chunkSize}
}

// prepare fills reg.Photo and reg.Chunks without any I/O. reg.ID must be set.
func (p *photoStore) prepare(reg *model.Registration, enc *imaging.Encoded) {
	uploadedAt := enc.UploadedAt
	reg.Photo = model.Photo{FileName: enc.FileName, UploadedAt: &uploadedAt}
	reg.Chunks = nil

	if p.blob != nil {
		reg.Photo.Object = blobstore.PhotoKey(reg.ID)
		return
	}

	chunks := chunker.Split(enc.DataURI, p.chunkSize)
	reg.Photo.Data = chunks[0]
	reg.Photo.Chunks = len(chunks)
	for i := 1; i < len(chunks); i++ {
		reg.Chunks = append(reg.Chunks, model.PhotoChunk{Index: i, Data: chunks[i]})
	}
}

// upload pushes the JPEG to the blob store when the record references one
func (p *photoStore) upload(ctx context.Context, reg *model.Registration, enc *imaging.Encoded) error {
	if reg.Photo.Object == "" || p.blob == nil {
		return nil
	}
	return p.blob.Put(ctx, reg.Photo.Object, "image/jpeg", enc.JPEG)
}

// discard removes the uploaded JPEG for a record that was never written
func (p *photoStore) discard(ctx context.Context, reg *model.Registration) error {
	if reg.Photo.Object == "" || p.blob == nil {
		return nil
	}
	return p.blob.Delete(ctx, reg.Photo.Object)
}

// load returns the photo as a data URI (or the legacy URL as stored)
func (p *photoStore) load(ctx context.Context, reg *model.Registration) (string, error) {
	switch {
	case reg.Photo.Legacy != nil && *reg.Photo.Legacy != "":
		return *reg.Photo.Legacy, nil
	case reg.Photo.Object != "":
		if p.blob == nil {
			return "", fmt.Errorf("photo %s is in blob storage but none is configured", reg.Photo.Object)
		}
		data, err := p.blob.Get(ctx, reg.Photo.Object)
		if err != nil {
			return "", err
		}
		return imaging.DataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
	case reg.Photo.Data != "":
		parts := make([]string, 0, 1+len(reg.Chunks))
		parts = append(parts, reg.Photo.Data)
		for _, c := range reg.Chunks {
			parts = append(parts, c.Data)
		}
		if reg.Photo.Chunks > 0 && len(parts) != reg.Photo.Chunks {
			return "", fmt.Errorf("%w: have %d of %d chunks", ErrPhotoIncomplete, len(parts), reg.Photo.Chunks)
		}
		return chunker.Join(parts), nil
	}
	return "", nil
}
