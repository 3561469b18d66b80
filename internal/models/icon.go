// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"fmt"
)

// Icon identifies one of the category icons the site can draw.
type Icon string

const (
	IconCode      Icon = "Code"
	IconDatabase  Icon = "Database"
	IconNetwork   Icon = "Network"
	IconBrain     Icon = "Brain"
	IconUsers     Icon = "Users"
	IconFileText  Icon = "FileText"
	IconTarget    Icon = "Target"
	IconBookOpen  Icon = "BookOpen"
	IconLayers    Icon = "Layers"
	IconGitBranch Icon = "GitBranch"
	IconTerminal  Icon = "Terminal"
	IconCpu       Icon = "Cpu"
	IconHardDrive Icon = "HardDrive"
	IconCloud     Icon = "Cloud"
)

// DefaultIcon is used for categories whose stored icon is unknown.
const DefaultIcon = IconFileText

// Icons lists every icon in the order the admin picker shows them.
var Icons = []Icon{
	IconCode, IconDatabase, IconNetwork, IconBrain, IconUsers, IconFileText, IconTarget,
	IconBookOpen, IconLayers, IconGitBranch, IconTerminal, IconCpu, IconHardDrive, IconCloud,
}

// Valid reports whether i is one of the known icons.
func (i Icon) Valid() bool {
	for _, known := range Icons {
		if i == known {
			return true
		}
	}
	return false
}

// OrDefault returns i if it is known and DefaultIcon otherwise.
func (i Icon) OrDefault() Icon {
	if i.Valid() {
		return i
	}
	return DefaultIcon
}

// Scan implements sql.Scanner so unknown names stored by older data are
// read without error and resolved at draw time.
func (i *Icon) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*i = Icon(v)
	case []byte:
		*i = Icon(v)
	case nil:
		*i = ""
	default:
		return fmt.Errorf("scan icon: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (i Icon) Value() (driver.Value, error) {
	return string(i), nil
}
