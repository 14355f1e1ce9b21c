// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/plasma-core/tokasim/mhd"
	"github.com/plasma-core/tokasim/models"
	"github.com/plasma-core/tokasim/simerr"
)

// ModelConfig names one registered model instance and its parameters,
// mirroring gofem's inp.Material{Name, Type, Model, Prms} named-entity
// database entry: Name is this instance's identity (used in diagnostics
// and, for sources, in SourceMetadata), Model is the registry key
// resolved through models.NewTransport/models.NewSource/mhd.New, and
// Params is the flat float32 parameter map those allocators consume.
type ModelConfig struct {
	Name   string             `json:"name"`
	Model  string             `json:"model"`
	Params map[string]float32 `json:"params"`
}

// ResolveTransport instantiates every configured transport model, summing
// them is not meaningful (transport coefficients are not additive the way
// sources are), so a configuration list of length other than 1 is
// rejected here; this mirrors gofem's per-region single-material
// assignment.
func ResolveTransport(cfgs []ModelConfig) (models.TransportModel, error) {
	if len(cfgs) != 1 {
		return nil, simerr.New(simerr.InvalidConfiguration, "exactly one transport model must be configured, got %d", len(cfgs))
	}
	return models.NewTransport(cfgs[0].Model, cfgs[0].Params)
}

// ResolveSources instantiates every configured source model and wraps
// them in a models.CompositeSourceModel, mirroring gofem's MatDb
// resolving a named subset of Material entries into live model pointers.
func ResolveSources(cfgs []ModelConfig) (*models.CompositeSourceModel, error) {
	composite := &models.CompositeSourceModel{}
	for _, c := range cfgs {
		m, err := models.NewSource(c.Model, c.Name, c.Params)
		if err != nil {
			return nil, err
		}
		composite.Models = append(composite.Models, m)
	}
	return composite, nil
}

// ResolveMHD instantiates every configured MHD model in declaration
// order; the orchestrator runs them in that same order every step
// (spec.md §4.8). Unset fields in Params fall back to mhd.DefaultConfig
// via mhd.NewSawtooth's zero-value fill, since mhd.Config has no JSON tags
// of its own.
func ResolveMHD(cfgs []ModelConfig) ([]mhd.Model, error) {
	out := make([]mhd.Model, 0, len(cfgs))
	for _, c := range cfgs {
		cfg := mhd.Config{
			MinCrashInterval: c.Params["minCrashInterval"],
			RhoMin:           c.Params["rhoMin"],
			ShearCrit:        c.Params["shearCrit"],
			MixRadiusFactor:  c.Params["mixRadiusFactor"],
			FlatteningFactor: c.Params["flatteningFactor"],
			FluxScaleFactor:  c.Params["fluxScaleFactor"],
		}
		m, err := mhd.New(c.Model, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
