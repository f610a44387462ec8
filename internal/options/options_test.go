package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type target struct {
	a int
	b string
}

func TestApply_InOrder(t *testing.T) {
	tgt := &target{}

	err := Apply(tgt,
		NoError(func(tg *target) { tg.a = 1 }),
		NoError(func(tg *target) { tg.b = "x" }),
		NoError(func(tg *target) { tg.a = 2 }),
	)
	require.NoError(t, err)
	require.Equal(t, 2, tgt.a, "later options win")
	require.Equal(t, "x", tgt.b)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	tgt := &target{}
	boom := errors.New("boom")

	err := Apply(tgt,
		NoError(func(tg *target) { tg.a = 1 }),
		New(func(tg *target) error { return boom }),
		NoError(func(tg *target) { tg.a = 99 }),
	)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, tgt.a, "options after the failure are not applied")
}

func TestApply_NoOptions(t *testing.T) {
	require.NoError(t, Apply(&target{}))
}
