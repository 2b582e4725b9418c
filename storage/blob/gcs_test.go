// Copyright 2026 basketcf Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"context"
	"io"
	"testing"

	"github.com/basketcf/basketcf/config"
	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestGCS(t *testing.T) {
	ctx := context.Background()
	server, err := fakestorage.NewServerWithOptions(fakestorage.Options{
		Scheme:     "http",
		Port:       5050,
		PublicHost: "localhost:5050",
	})
	assert.NoError(t, err)
	defer server.Stop()
	server.CreateBucketWithOpts(fakestorage.CreateBucketOpts{Name: "basketcf-test"})
	t.Setenv("STORAGE_EMULATOR_HOST", "localhost:5050")

	// create client
	client, err := NewGCS(config.GCSConfig{
		Bucket: "basketcf-test",
		Prefix: "blob",
	})
	assert.NoError(t, err)

	// missing file
	_, err = client.Open(ctx, "test.csv")
	assert.True(t, errors.Is(err, errors.NotFound))

	// create file
	w, err := client.Create(ctx, "test.csv")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	// read file
	r, err := client.Open(ctx, "test.csv")
	assert.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.NoError(t, r.Close())

	// aborted file is never created
	w, err = client.Create(ctx, "aborted.csv")
	assert.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	assert.NoError(t, err)
	assert.NoError(t, w.Abort())
	_, err = client.Open(ctx, "aborted.csv")
	assert.True(t, errors.Is(err, errors.NotFound))
}
