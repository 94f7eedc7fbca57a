//go:build !race

package webcore

func passwordHashCost() int {
	return 14
}
