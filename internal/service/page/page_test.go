package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Request{Page: 1, PerPage: DefaultPerPage}, Request{}.Normalize())
	assert.Equal(t, Request{Page: 3, PerPage: MaxPerPage}, Request{Page: 3, PerPage: 1000}.Normalize())
	assert.Equal(t, 40, Request{Page: 3, PerPage: 20}.Offset())
	assert.Equal(t, 0, Request{Page: -1}.Offset())
}

func TestLike(t *testing.T) {
	assert.Equal(t, "%yama%", Like(" yama "))
	assert.Equal(t, `%50\%\_off%`, Like("50%_off"))
}
