package efs2

import (
	"fmt"
	"path"
	"strings"
)

// streamPrefix is a QEFS2 quirk where some filenames carry a "0:" stream
// qualifier that is stripped from the final resolved name (spec §4.D.4,
// scenario E6).
const streamPrefix = "0:"

// Walk traverses the directory node list starting at FirstDirectoryNodeID,
// decoding every record into a FileEntry (spec §4.D.3). "." and ".."
// self-entries are dropped, since they carry no information beyond what
// ParentInode/InodeRef linkage already encodes (spec §8, property 6).
//
// The node list is a simple linear iterator: each node's records are
// processed in file order, and traversal stops at the 0xFFFFFFFF sentinel.
// A node id seen twice is treated as a cycle and reported as an error,
// rather than looping forever.
func (v *Volume) Walk() ([]FileEntry, error) {
	var entries []FileEntry
	visited := make(map[uint32]bool)

	nodeID := v.FirstDirectoryNodeID()
	for nodeID != sentinelID {
		if visited[nodeID] {
			return nil, fmt.Errorf("efs2: directory node list cycle at node 0x%x", nodeID)
		}
		visited[nodeID] = true

		node, nodeEntries, err := v.parseDirNode(nodeID)
		if err != nil {
			return nil, err
		}
		for _, e := range nodeEntries {
			if e.Name == "." || e.Name == ".." {
				continue
			}
			entries = append(entries, e)
		}
		nodeID = node.Next
	}

	return entries, nil
}

// ResolvedFile is a non-directory FileEntry with its pathname resolved
// relative to the volume's root (spec §4.D.4).
type ResolvedFile struct {
	Path string
	Mode uint16
	Data []byte
}

type dirInfo struct {
	name   string
	parent uint32
}

// ResolvePaths builds an inode -> (name, parent) map from entries' directory
// records, then resolves every non-directory entry's path by walking its parent
// chain up to root (spec §4.D.4).
//
// Files whose immediate parent is the root directory are not emitted, a
// quirk this package carries over unchanged from
// original_source/efs2_extractor.py's extract_efs2 (which skips them via
// "elif x.parent_inode == root_inode: continue") — see DESIGN.md.
func ResolvePaths(entries []FileEntry, rootInode uint32) ([]ResolvedFile, error) {
	dirnames := make(map[uint32]dirInfo)
	for _, e := range entries {
		if !e.IsDir() || e.InodeRef == nil {
			continue
		}
		dirnames[*e.InodeRef] = dirInfo{name: e.Name, parent: e.ParentInode}
	}

	cache := make(map[uint32]string)
	var out []ResolvedFile

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.ParentInode == rootInode {
			continue
		}

		dir, ok := cache[e.ParentInode]
		if !ok {
			var names []string
			inode := e.ParentInode
			for inode != rootInode {
				info, known := dirnames[inode]
				if !known {
					return nil, fmt.Errorf("efs2: no directory record for parent inode 0x%x", inode)
				}
				names = append(names, info.name)
				inode = info.parent
			}
			for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
				names[i], names[j] = names[j], names[i]
			}
			dir = path.Join(names...)
			cache[e.ParentInode] = dir
		}

		name := strings.TrimPrefix(e.Name, streamPrefix)
		out = append(out, ResolvedFile{
			Path: path.Join(dir, name),
			Mode: e.Mode,
			Data: e.Data,
		})
	}

	return out, nil
}
