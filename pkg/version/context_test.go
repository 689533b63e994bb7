package version

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genlayerlabs/genvm-lint/pkg/header"
)

const testHash = "4c9b1b2d8e3f5a6c7d8e9f0a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c"

func TestResolve_EmptyDeclaration(t *testing.T) {
	ctx := Resolve("source", nil)

	require.Nil(t, ctx.Resolved)
	require.Equal(t, Latest, ctx.Raw)
	require.Empty(t, ctx.Dependencies)
	require.Empty(t, ctx.Order)
	require.Equal(t, "source", ctx.Source)
}

func TestResolve_FirstVersionWins(t *testing.T) {
	decl := header.Declaration{
		{Package: "py-genlayer", Value: "test"},
		{Package: "py-lib-genlayermodelwrappers", Value: "0.2.0"},
		{Package: "other", Value: "0.9.0"},
	}

	ctx := Resolve("", decl)

	require.NotNil(t, ctx.Resolved)
	require.Equal(t, "0.2.0", ctx.Raw)
	require.Equal(t, []string{"py-genlayer", "py-lib-genlayermodelwrappers", "other"}, ctx.Order)
}

func TestResolve_HashOnlyDeclaration(t *testing.T) {
	decl := header.Declaration{{Package: "py-genlayer", Value: testHash}}

	ctx := Resolve("", decl)

	require.Nil(t, ctx.Resolved, "a content hash does not resolve a version")
	require.Equal(t, Latest, ctx.Raw)
	require.Equal(t, testHash, ctx.Dependencies["py-genlayer"])
}

func TestResolve_DuplicatePackageKeepsOrder(t *testing.T) {
	decl := header.Declaration{
		{Package: "py-genlayer", Value: "0.1.0"},
		{Package: "py-genlayer", Value: "0.2.0"},
	}

	ctx := Resolve("", decl)

	require.Equal(t, []string{"py-genlayer"}, ctx.Order)
	// last declared value wins in the map, first parseable version wins
	// for resolution
	require.Equal(t, "0.2.0", ctx.Dependencies["py-genlayer"])
	require.Equal(t, "0.1.0", ctx.Raw)
}

func TestHasDependencyValue(t *testing.T) {
	ctx := Resolve("", header.Declaration{
		{Package: "py-genlayer", Value: testHash},
		{Package: "extra", Value: "0.2.0"},
	})

	require.True(t, ctx.HasDependencyValue(testHash))
	require.True(t, ctx.HasDependencyValue("0.2.0"))
	require.False(t, ctx.HasDependencyValue("0.3.0"))
}
