package cmd

import (
	"reflect"
	"testing"
)

func TestParseCounts(t *testing.T) {
	type spec struct {
		in     string
		exp    []int
		expErr bool
	}
	specs := []spec{
		{"50,100,150", []int{50, 100, 150}, false},
		{" 10 , 20 ,", []int{10, 20}, false},
		{"", nil, false},
		{"10,abc", nil, true},
	}

	for index, sp := range specs {
		counts, err := parseCounts(sp.in)
		if sp.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error", index)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if !reflect.DeepEqual(counts, sp.exp) {
			t.Fatalf("[spec %d] expected %v; got %v", index, sp.exp, counts)
		}
	}
}
