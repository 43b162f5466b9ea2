package yamlschema_test

import (
	"testing"

	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
	"github.com/cairnhq/cairn/pkg/schema/yamlschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sprocket struct {
	variant schema.VariantID
	name    string
	peer    graphid.ID
}

func (s *sprocket) VariantID() schema.VariantID { return s.variant }
func (s *sprocket) Clone() schema.Node          { c := *s; return &c }

const docYAML = `
variants:
  - name: Left
    groups: [node]
    data_fields:
      - name: name
        type: string
    link_fields:
      - name: peer
        shape: single
  - name: Right
    groups: [node]
    data_fields:
      - name: name
        type: string
    link_fields:
      - name: peer
        shape: single
bidirectional:
  - a: Left.peer
    b: Right.peer
link_types:
  - source: Left.peer
    permitted: [Right]
  - source: Right.peer
    permitted: [Left]
`

func TestParseAndLoadBuildsRegistry(t *testing.T) {
	doc, err := yamlschema.Parse([]byte(docYAML))
	require.NoError(t, err)
	require.Len(t, doc.Variants, 2)

	readName := func(n schema.Node) any { return n.(*sprocket).name }
	readPeer := func(n schema.Node) schema.View { return schema.NewSingleView(n.(*sprocket).peer) }
	writePeer := func(n schema.Node, v schema.View) { n.(*sprocket).peer = v.Single() }

	dataAccessors := map[string]yamlschema.DataAccessor{
		"Left.name":  {Read: readName},
		"Right.name": {Read: readName},
	}
	linkAccessors := map[string]yamlschema.LinkAccessor{
		"Left.peer":  {Read: readPeer, Write: writePeer},
		"Right.peer": {Read: readPeer, Write: writePeer},
	}

	reg, err := yamlschema.Load(doc, linkAccessors, dataAccessors)
	require.NoError(t, err)

	left, ok := reg.VariantByName("Left")
	require.True(t, ok)
	right, ok := reg.VariantByName("Right")
	require.True(t, ok)

	peerVariant, peerField, ok := reg.PeerOf(left.ID(), "peer")
	require.True(t, ok)
	assert.Equal(t, right.ID(), peerVariant)
	assert.Equal(t, "peer", peerField)

	constraint, ok := reg.ConstraintFor(left.ID(), "peer")
	require.True(t, ok)
	assert.True(t, constraint.Permitted[right.ID()])
}

func TestLoadFailsWithoutAccessor(t *testing.T) {
	doc, err := yamlschema.Parse([]byte(docYAML))
	require.NoError(t, err)

	_, err = yamlschema.Load(doc, nil, nil)
	require.Error(t, err)
}
