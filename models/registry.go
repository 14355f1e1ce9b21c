// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import "github.com/plasma-core/tokasim/simerr"

// TransportAllocator builds a TransportModel from a flat parameter map,
// the same shape inp.ModelConfig.Params carries in from JSON.
type TransportAllocator func(params map[string]float32) (TransportModel, error)

// SourceAllocator builds a SourceModel from a flat parameter map.
type SourceAllocator func(name string, params map[string]float32) (SourceModel, error)

var transportRegistry = map[string]TransportAllocator{}
var sourceRegistry = map[string]SourceAllocator{}

// RegisterTransport adds a TransportModel constructor under name.
func RegisterTransport(name string, allocator TransportAllocator) {
	transportRegistry[name] = allocator
}

// RegisterSource adds a SourceModel constructor under name.
func RegisterSource(name string, allocator SourceAllocator) {
	sourceRegistry[name] = allocator
}

// NewTransport instantiates a registered TransportModel by name. This is
// how inp.ModelConfig entries (read from JSON, mirroring
// gofem's inp.Material{Name, Type, Model, Prms} database) become live
// TransportModel instances without the orchestrator knowing every
// concrete closure type that ships.
func NewTransport(name string, params map[string]float32) (TransportModel, error) {
	allocator, ok := transportRegistry[name]
	if !ok {
		return nil, simerr.New(simerr.InvalidConfiguration, "transport model %q is not registered", name)
	}
	return allocator(params)
}

// NewSource instantiates a registered SourceModel by name.
func NewSource(name string, instanceName string, params map[string]float32) (SourceModel, error) {
	allocator, ok := sourceRegistry[name]
	if !ok {
		return nil, simerr.New(simerr.InvalidConfiguration, "source model %q is not registered", name)
	}
	return allocator(instanceName, params)
}

func init() {
	RegisterTransport("constant", func(params map[string]float32) (TransportModel, error) {
		return &ConstantTransportModel{
			ChiI: params["chiI"],
			ChiE: params["chiE"],
			D:    params["D"],
			V:    params["V"],
		}, nil
	})
	RegisterTransport("inverse_density", func(params map[string]float32) (TransportModel, error) {
		return &InverseDensityTransportModel{
			ChiCoeff: params["chiCoeff"],
			D:        params["D"],
			V:        params["V"],
		}, nil
	})
	RegisterSource("constant", func(name string, params map[string]float32) (SourceModel, error) {
		return &ConstantSourceModel{
			Name:          name,
			Category:      SourceCategory(int(params["category"])),
			IonHeatingMW:  params["ionHeatingMW"],
			ElecHeatingMW: params["elecHeatingMW"],
			ParticleSrc:   params["particleSrc"],
			CurrentSrc:    params["currentSrc"],
		}, nil
	})
}
