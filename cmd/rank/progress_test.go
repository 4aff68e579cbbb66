package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressGateReportsStepCrossings(t *testing.T) {
	// Batch size 3 over 31 members never lands on a multiple of ten
	var gate progressGate
	var reported []int
	for _, done := range []int{3, 6, 9, 12, 15, 18, 21, 24, 27, 30, 31} {
		if gate.due(done, 31) {
			reported = append(reported, done)
		}
	}

	assert.Equal(t, []int{12, 21, 30, 31}, reported)
}

func TestProgressGateAlignedBatches(t *testing.T) {
	var gate progressGate
	var reported []int
	for done := 5; done <= 25; done += 5 {
		if gate.due(done, 25) {
			reported = append(reported, done)
		}
	}

	assert.Equal(t, []int{10, 20, 25}, reported)
}
