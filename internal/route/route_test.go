package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path     string
		expected View
	}{
		{"/", Home},
		{"/how-it-works", HowItWorks},
		{"/how-it-works/steps", HowItWorks},
		{"/products", Products},
		{"/products/anything", Products},
		{"/product/42", ProductDetail},
		{"/product/", ProductDetail},
		{"/firm", FirmPortal},
		{"/firm/login", FirmPortal},
		{"/unknown/path", Home},
		{"", Home},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.path))
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		path           string
		view           View
		shouldRedirect bool
	}{
		{"/product/42", ProductDetail, false},
		{"/products", Products, false},
		{"/firm", FirmPortal, false},
		{"/unknown/path", Home, true},
		{"/product/", Home, true},
		{"/product/1/2", Home, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, redirect := Resolve(tt.path)
			assert.Equal(t, tt.view, v)
			assert.Equal(t, tt.shouldRedirect, redirect)
		})
	}
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, "/", PathFor(Home, ""))
	assert.Equal(t, "/products", PathFor(Products, ""))
	assert.Equal(t, "/how-it-works", PathFor(HowItWorks, ""))
	assert.Equal(t, "/firm", PathFor(FirmPortal, ""))
	assert.Equal(t, "/product/abc", PathFor(ProductDetail, "abc"))
	assert.Equal(t, "/products", PathFor(ProductDetail, ""))
	assert.Equal(t, "/", PathFor(View("other"), ""))
}

func TestProductID(t *testing.T) {
	id, ok := ProductID("/product/42")
	assert.True(t, ok)
	assert.Equal(t, "42", id)

	id, ok = ProductID("/product/42/")
	assert.True(t, ok)
	assert.Equal(t, "42", id)

	_, ok = ProductID("/products/42")
	assert.False(t, ok)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "/product/42", Canonical("/product/42/"))
	assert.Equal(t, "/product/42", Canonical("/product/42"))
	assert.Equal(t, "/products", Canonical("/products"))
	assert.Equal(t, "/", Canonical("/"))
}
