package trash

import (
	"fmt"
	"io"

	"github.com/moby/sys/mountinfo"
)

// Mount is one entry of the kernel mount table.
type Mount struct {
	Device string
	Point  string
	FSType string
}

// virtualFSTypes never hold user trash and some of them are expensive or
// blocking to probe.
var virtualFSTypes = map[string]bool{
	"autofs":      true,
	"binfmt_misc": true,
	"bpf":         true,
	"cgroup":      true,
	"cgroup2":     true,
	"configfs":    true,
	"debugfs":     true,
	"devpts":      true,
	"devtmpfs":    true,
	"efivarfs":    true,
	"fusectl":     true,
	"hugetlbfs":   true,
	"mqueue":      true,
	"nsfs":        true,
	"proc":        true,
	"pstore":      true,
	"rpc_pipefs":  true,
	"securityfs":  true,
	"squashfs":    true,
	"sysfs":       true,
	"tracefs":     true,
}

// remoteFSTypes are served over the network. A hung server blocks stat(2)
// without a timeout, so their trash is left alone.
var remoteFSTypes = map[string]bool{
	"9p":             true,
	"afs":            true,
	"ceph":           true,
	"cifs":           true,
	"davfs":          true,
	"fuse.glusterfs": true,
	"fuse.rclone":    true,
	"fuse.s3fs":      true,
	"fuse.sshfs":     true,
	"glusterfs":      true,
	"ncpfs":          true,
	"nfs":            true,
	"nfs4":           true,
	"smb3":           true,
	"smbfs":          true,
}

// ReadMounts returns the mount table of the current process.
func ReadMounts() ([]Mount, error) {
	infos, err := mountinfo.GetMounts(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read mount table: %w", err)
	}
	return fromMountinfo(infos), nil
}

// ParseMounts parses /proc/<pid>/mountinfo formatted content.
func ParseMounts(r io.Reader) ([]Mount, error) {
	infos, err := mountinfo.GetMountsFromReader(r, nil)
	if err != nil {
		return nil, err
	}
	return fromMountinfo(infos), nil
}

// fromMountinfo converts the kernel entries in table order. A mount point
// listed more than once keeps its first position but takes the fields of the
// last entry, which is the one visible at that path (an autofs trigger
// followed by the real filesystem, or an overmount).
func fromMountinfo(infos []*mountinfo.Info) []Mount {
	mounts := make([]Mount, 0, len(infos))
	index := make(map[string]int, len(infos))

	for _, info := range infos {
		m := Mount{
			Device: info.Source,
			Point:  info.Mountpoint,
			FSType: info.FSType,
		}
		if i, ok := index[m.Point]; ok {
			mounts[i] = m
			continue
		}
		index[m.Point] = len(mounts)
		mounts = append(mounts, m)
	}
	return mounts
}

// IsVirtual reports whether the mount is a pseudo filesystem.
func (m Mount) IsVirtual() bool {
	return virtualFSTypes[m.FSType]
}

// IsRemote reports whether the mount is a network filesystem.
func (m Mount) IsRemote() bool {
	return remoteFSTypes[m.FSType]
}
