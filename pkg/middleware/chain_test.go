package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain(t *testing.T) {
	type handler func(int) int

	add10 := func(h handler) handler {
		return func(n int) int {
			return h(n) + 10
		}
	}
	multiply2 := func(h handler) handler {
		return func(n int) int {
			return h(n) * 2
		}
	}
	base := func(n int) int {
		return n
	}

	chained := Chain(add10, multiply2)(base)
	assert.Equal(t, 20, chained(5))
}

func TestChain_Empty(t *testing.T) {
	type handler func(string) string

	base := func(s string) string {
		return s
	}
	chained := Chain[handler]()(base)
	assert.Equal(t, "test", chained("test"))
}

func TestChain_Order(t *testing.T) {
	type handler func([]string) []string

	appendWith := func(tag string) func(handler) handler {
		return func(h handler) handler {
			return func(s []string) []string {
				return append(h(s), tag)
			}
		}
	}
	base := func(s []string) []string {
		return append(s, "base")
	}

	chained := Chain(appendWith("A"), appendWith("B"), appendWith("C"))(base)
	assert.Equal(t, []string{"base", "C", "B", "A"}, chained(nil))
}
