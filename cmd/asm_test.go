package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAsm1(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "game.s")
	require.NoError(t, os.WriteFile(source, []byte("NOP\n.BANK CS1\n.DB 1\n"), 0644))

	var out bytes.Buffer
	require.NoError(t, runAsm(&out, source, asmOptions{symbols: true}))
	assert.Contains(t, out.String(), "wrote "+filepath.Join(dir, "game.hxh"))
	assert.Contains(t, out.String(), "wrote "+filepath.Join(dir, "game.cs1"))
	assert.Contains(t, out.String(), "SYMBOL")

	rom, err := os.ReadFile(filepath.Join(dir, "game.hxh"))
	require.NoError(t, err)
	assert.Equal(t, 0x10000, len(rom))
	_, err = os.Stat(filepath.Join(dir, "game.cs2"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunAsm1Fail(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "bad.s")
	require.NoError(t, os.WriteFile(source, []byte("JMP @nowhere\n"), 0644))

	var out bytes.Buffer
	err := runAsm(&out, source, asmOptions{output: filepath.Join(dir, "bad.rom")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
	_, err = os.Stat(filepath.Join(dir, "bad.rom"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunConst(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runConst(&out, []string{"$10"}))
	assert.Equal(t, "$10          16 $10 %10000\n", out.String())
	assert.Error(t, runConst(&out, []string{"5", "zz"}))
}

func TestFlashAddresses(t *testing.T) {
	base, page, err := flashOptions{page: "$40"}.addresses(0x10000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFF0000), base)
	assert.Equal(t, 64, page)

	base, _, err = flashOptions{page: "128", base: "$FE0000"}.addresses(0x10000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFE0000), base)

	_, _, err = flashOptions{page: "x"}.addresses(1)
	assert.Error(t, err)
}
