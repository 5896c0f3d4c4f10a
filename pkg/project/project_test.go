package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monover/monover/pkg/version"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		pname   string
		path    string
		scheme  Scheme
		wantErr bool
	}{
		{name: "valid monorepo", pname: "core", path: "core", scheme: SchemeMonorepo},
		{name: "valid mono-project", pname: "app", path: ".", scheme: SchemeMonoProject},
		{name: "dotted name", pname: "my.lib", path: "lib", scheme: SchemeMonorepo},
		{name: "empty name", pname: "", path: ".", scheme: SchemeMonorepo, wantErr: true},
		{name: "name with space", pname: "my lib", path: ".", scheme: SchemeMonorepo, wantErr: true},
		{name: "name with glob char", pname: "lib*", path: ".", scheme: SchemeMonorepo, wantErr: true},
		{name: "trailing separator in name", pname: "lib-", path: ".", scheme: SchemeMonorepo, wantErr: true},
		{name: "absolute path", pname: "core", path: "/core", scheme: SchemeMonorepo, wantErr: true},
		{name: "path escaping root", pname: "core", path: "../core", scheme: SchemeMonorepo, wantErr: true},
		{name: "unknown scheme", pname: "core", path: ".", scheme: Scheme("flat"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.pname, tc.path, tc.scheme)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTagFormatting(t *testing.T) {
	v := version.MustParse("1.2.3")

	mono, err := New("core", "core", SchemeMonorepo)
	require.NoError(t, err)
	assert.Equal(t, "core-v1.2.3", mono.VTag(v))
	assert.Equal(t, "core-r1.2.3", mono.RTag(v))
	assert.Equal(t, "core-v*", mono.VTagPattern())
	assert.Equal(t, "core-r*", mono.RTagPattern())

	single, err := New("app", ".", SchemeMonoProject)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", single.VTag(v))
	assert.Equal(t, "r1.2.3", single.RTag(v))
	assert.Equal(t, "v*", single.VTagPattern())
	assert.Equal(t, "r*", single.RTagPattern())
}

func TestParseTagRoundTrip(t *testing.T) {
	p, err := New("core", "core", SchemeMonorepo)
	require.NoError(t, err)

	v := version.MustParse("0.3.0rc1")
	got, ok := p.ParseVTag(p.VTag(v))
	require.True(t, ok)
	assert.True(t, version.Equal(got, v))

	got, ok = p.ParseRTag(p.RTag(v))
	require.True(t, ok)
	assert.True(t, version.Equal(got, v))
}

func TestParseTagRejectsForeign(t *testing.T) {
	p, err := New("core", "core", SchemeMonorepo)
	require.NoError(t, err)

	for _, tag := range []string{
		"other-v1.0.0",     // different project
		"core-extra-v1.0",  // prefix-sharing sibling
		"core-r1.0.0",      // wrong kind for ParseVTag
		"core-v",           // no version
		"core-vnot.a.ver_", // malformed version
		"v1.0.0",           // bare tag in monorepo
	} {
		_, ok := p.ParseVTag(tag)
		assert.False(t, ok, "tag %q should not parse", tag)
	}
}

func TestStartVersion(t *testing.T) {
	p, err := New("core", "core", SchemeMonorepo)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", p.Start().String())

	p.StartVersion = "1.0.0a1"
	require.NoError(t, p.Bind(SchemeMonorepo))
	assert.Equal(t, "1.0.0a1", p.Start().String())

	p.StartVersion = "nope"
	assert.Error(t, p.Bind(SchemeMonorepo))
}

func TestEngraveSpecsFallback(t *testing.T) {
	p, err := New("core", "core", SchemeMonorepo)
	require.NoError(t, err)
	assert.NotEmpty(t, p.EngraveSpecs())
}
