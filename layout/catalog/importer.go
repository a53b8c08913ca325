package catalog

import (
	"context"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/gekko3d/siteplan/layout/assets"
	"github.com/gekko3d/siteplan/layout/core"
	"github.com/gekko3d/siteplan/layout/dims"
)

var ErrInvalidImportInput = errors.New("invalid import input")

type ImportRequest struct {
	Name string
	// RealHeight is the model's real height in meters.
	RealHeight float32
	AssetRef   string
}

// Validate rejects a request before any asset is loaded.
func (r ImportRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" || Key(r.Name) == "" {
		missing = append(missing, "name")
	}
	if !(r.RealHeight > 0) || math.IsInf(float64(r.RealHeight), 0) {
		missing = append(missing, "positive height")
	}
	if strings.TrimSpace(r.AssetRef) == "" {
		missing = append(missing, "asset")
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrInvalidImportInput, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Importer measures an asset once and turns it into an ImportedTemplate.
type Importer struct {
	Loader assets.Loader
	Logger core.Logger
}

func (im *Importer) Import(ctx context.Context, req ImportRequest) (*ImportedTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := core.LoggerOrNop(im.Logger)

	node, err := im.Loader.Load(ctx, req.AssetRef)
	if err != nil {
		return nil, err
	}
	// The node only exists to be measured.
	defer func() {
		if err := node.Dispose(); err != nil {
			log.Warnf("import %q: releasing measured model: %v", req.Name, err)
		}
	}()

	node.UpdateWorldMatrix()
	box := node.WorldAABB()
	if box.IsEmpty() {
		return nil, errors.Wrapf(ErrInvalidImportInput, "%s has no geometry", req.AssetRef)
	}
	size := dims.FromVec3(box.Size())

	scale, err := dims.UniformHeightScale(req.RealHeight, size.Height)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidImportInput, "%s: %v", req.AssetRef, err)
	}

	t := &ImportedTemplate{
		name:             strings.TrimSpace(req.Name),
		assetRef:         req.AssetRef,
		userHeight:       req.RealHeight,
		authoredSize:     size,
		recommendedScale: scale,
	}
	rd := t.RealDimensions()
	log.Infof("imported %q: height %.2fm, authored %.2f, scale %.2fx, real %.2f x %.2f x %.2f m",
		t.name, req.RealHeight, size.Height, scale, rd.Width, rd.Height, rd.Length)
	return t, nil
}
