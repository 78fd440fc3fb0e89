package toolchain

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

func TestCommandString(t *testing.T) {
	c := Command{Args: []string{"cmake", "--build", "build dir", "--target", "x"}}
	require.Equal(t, "'cmake' '--build' 'build dir' '--target' 'x'", c.String())
}

func TestExecRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("captures output", func(t *testing.T) {
		var out bytes.Buffer
		err := ExecRunner{}.Run(ctx, Command{Args: []string{"sh", "-c", "echo hello"}, Stdout: &out})
		require.NoError(t, err)
		require.Equal(t, "hello\n", out.String())
	})

	t.Run("non-zero exit", func(t *testing.T) {
		err := ExecRunner{}.Run(ctx, Command{Args: []string{"sh", "-c", "exit 3"}})
		require.Error(t, err)
		code, ok := ExitCode(err)
		require.True(t, ok)
		require.Equal(t, 3, code)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryToolchain))
	})

	t.Run("missing binary", func(t *testing.T) {
		err := ExecRunner{}.Run(ctx, Command{Args: []string{"nickeltools-definitely-missing"}})
		require.Error(t, err)
		_, ok := ExitCode(err)
		require.False(t, ok)
	})

	t.Run("empty command", func(t *testing.T) {
		require.Error(t, ExecRunner{}.Run(ctx, Command{}))
	})
}

func TestCMakeArgs(t *testing.T) {
	c := CMake{}
	require.Equal(t,
		[]string{"cmake", "--build", "build", "--config", "Debug", "--target", "t"},
		c.BuildArgs(BuildOptions{BinaryDir: "build", Config: "Debug", Target: "t"}))
	require.Equal(t,
		[]string{"/opt/cmake", "--build", "b", "-j", "1", "--target", "bench"},
		CMake{Binary: "/opt/cmake"}.BuildArgs(BuildOptions{BinaryDir: "b", Jobs: 1, Target: "bench"}))
	require.Equal(t,
		[]string{"cmake", "-S", "src", "-B", "out", "-DA=1", "-DBUILD_TESTING=OFF"},
		c.ConfigureArgs("src", "out", map[string]string{"BUILD_TESTING": "OFF", "A": "1"}))
}
