package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/cabinet/internal/core/asset"
)

func writeScene(t *testing.T, dir string) (path string, root asset.PathID) {
	t.Helper()
	shared := asset.New("shared.assets")
	mesh, err := asset.NewGameObject(shared, "Mesh")
	require.NoError(t, err)
	require.NoError(t, shared.SaveFile(filepath.Join(dir, "shared.assets")))

	scene := asset.New("scene.assets")
	g, err := asset.NewGameObject(scene, "Prop")
	require.NoError(t, err)
	tr, err := asset.NewTransform(scene)
	require.NoError(t, err)
	require.NoError(t, g.AddLinkedComponent(tr))
	mf, err := asset.NewMeshFilter(scene, mesh)
	require.NoError(t, err)
	require.NoError(t, g.AddLinkedComponent(mf))

	path = filepath.Join(dir, "scene.assets")
	require.NoError(t, scene.SaveFile(path))
	return path, g.PathID()
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, append([]string{"-log-level", "silent"}, args...))
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.Code
}

func TestDump(t *testing.T) {
	path, _ := writeScene(t, t.TempDir())

	out, err := runCLI(t, "dump", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name: scene.assets")
	assert.Contains(t, out, "name: Prop")
	assert.Contains(t, out, "class: MeshFilter")
}

func TestVerify(t *testing.T) {
	path, _ := writeScene(t, t.TempDir())

	out, err := runCLI(t, "verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok, 3 objects")

	_, err = runCLI(t, "verify", filepath.Join(t.TempDir(), "missing.assets"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnresolved(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeScene(t, dir)

	out, err := runCLI(t, "unresolved", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, os.Remove(filepath.Join(dir, "shared.assets")))
	out, err = runCLI(t, "unresolved", path)
	assert.Equal(t, 3, exitCode(t, err))
	assert.Contains(t, out, "m_Mesh")
}

func TestClone(t *testing.T) {
	dir := t.TempDir()
	path, root := writeScene(t, dir)
	dst := filepath.Join(dir, "copy.assets")

	out, err := runCLI(t, "clone", path, strconv.Itoa(int(root)), dst)
	require.NoError(t, err)
	assert.Contains(t, out, `cloned "Prop"`)

	copied := asset.New("copy.assets")
	require.NoError(t, copied.LoadFile(dst))
	assert.Equal(t, 3, copied.Len())
	names := []string{}
	for _, dep := range copied.Dependencies() {
		names = append(names, dep.Name)
	}
	assert.Equal(t, []string{"shared.assets"}, names)

	_, err = runCLI(t, "clone", path, "abc", dst)
	assert.Equal(t, 2, exitCode(t, err))
}

func TestUsageErrors(t *testing.T) {
	_, err := runCLI(t)
	assert.Equal(t, 2, exitCode(t, err))

	_, err = runCLI(t, "frobnicate")
	assert.Equal(t, 2, exitCode(t, err))

	_, err = runCLI(t, "verify")
	assert.Equal(t, 2, exitCode(t, err))

	_, err = runCLI(t, "-config", filepath.Join(t.TempDir(), "none.yaml"), "dump", "x")
	assert.Equal(t, 2, exitCode(t, err))
}
