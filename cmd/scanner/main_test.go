package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digimosa/gdpr-scan/internal/enrich"
)

func TestRegionUsageListsEveryProfile(t *testing.T) {
	usage := regionUsage()
	for _, code := range enrich.Regions() {
		assert.Contains(t, usage, code)
	}
	assert.Contains(t, usage, "FR")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, splitList(" a.yaml, ,b.yaml "))
	assert.Nil(t, splitList(""))
}
