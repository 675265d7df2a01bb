package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildLabels(t *testing.T) {
	labels := BuildLabels("job-1", "build")

	assert.Equal(t, "true", labels[LabelProject])
	assert.Equal(t, "job-1", labels[LabelJob])
	assert.Equal(t, "build", labels[LabelTask])
	assert.Len(t, labels, 3)
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "job-1-build", ServiceName("job-1", "build"))
}
