package importer

import "errors"

var (
	// ErrNoAssetURL marks a source item with no downloadable asset.
	ErrNoAssetURL = errors.New("no asset url")
)
