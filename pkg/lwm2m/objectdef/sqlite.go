/*
Copyright 2026 The KubeEdge Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package objectdef

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/beego/beego/orm"
	// Blank import to run only the init function
	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"

	utilvalidation "github.com/kubeedge/lwm2mconsole/pkg/util/validation"
)

const (
	// DriverName is the sqlite driver registered with the orm.
	DriverName = "sqlite3"
	// TableName holds one row per fetched object document.
	TableName = "object_definition"

	defaultAlias = "default"
)

// ObjectDefinitionRow is the stored form of one fetched object document.
type ObjectDefinitionRow struct {
	CatalogID string `orm:"column(catalog_id);size(64);pk"`
	Document  string `orm:"column(document);type(text)"`
	FetchedAt int64  `orm:"column(fetched_at)"`
}

// TableName returns the name of the table in the DB
func (ObjectDefinitionRow) TableName() string {
	return TableName
}

func init() {
	orm.RegisterModel(new(ObjectDefinitionRow))
}

var (
	aliasMu  sync.Mutex
	aliasSeq int
)

// registerDataBase registers path under a fresh orm alias. The orm needs a
// database named default before it syncs any other, so the first store
// opened in a process also takes that name.
func registerDataBase(path string) (string, error) {
	aliasMu.Lock()
	defer aliasMu.Unlock()

	if err := orm.RegisterDriver(DriverName, orm.DRSqlite); err != nil {
		return "", fmt.Errorf("failed to register driver: %w", err)
	}
	if _, err := orm.GetDB(defaultAlias); err != nil {
		if err := orm.RegisterDataBase(defaultAlias, DriverName, path); err != nil {
			return "", fmt.Errorf("failed to register db: %w", err)
		}
	}
	aliasSeq++
	alias := "objectdef-" + strconv.Itoa(aliasSeq)
	// sqlite serializes writers anyway
	if err := orm.RegisterDataBase(alias, DriverName, path, 1, 1); err != nil {
		return "", fmt.Errorf("failed to register db: %w", err)
	}
	return alias, nil
}

// SQLiteStore keeps fetched definitions on disk. Documents are immutable per
// id, so rows are never updated, only inserted.
type SQLiteStore struct {
	alias string
	o     orm.Ormer
}

// OpenSQLiteStore opens (and creates if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := utilvalidation.EnsureParentDirExist(path); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	alias, err := registerDataBase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open object definition store %s: %w", path, err)
	}
	// sync database schema
	if err := orm.RunSyncdb(alias, false, false); err != nil {
		return nil, fmt.Errorf("failed to sync object definition schema: %w", err)
	}
	klog.V(2).Infof("object definition store opened at %s", path)
	o := orm.NewOrm()
	if err := o.Using(alias); err != nil {
		return nil, err
	}
	return &SQLiteStore{alias: alias, o: o}, nil
}

// Get returns the stored definition for catalogID.
func (s *SQLiteStore) Get(catalogID string) (*ObjectDefinition, bool, error) {
	row := &ObjectDefinitionRow{CatalogID: catalogID}
	err := s.o.Read(row)
	if errors.Is(err, orm.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	def := &ObjectDefinition{}
	if err := json.Unmarshal([]byte(row.Document), def); err != nil {
		return nil, false, fmt.Errorf("corrupt stored definition %s: %w", catalogID, err)
	}
	return def, true, nil
}

// Put stores def unless a row for catalogID already exists.
func (s *SQLiteStore) Put(catalogID string, def *ObjectDefinition) error {
	doc, err := json.Marshal(def)
	if err != nil {
		return err
	}
	row := &ObjectDefinitionRow{
		CatalogID: catalogID,
		Document:  string(doc),
		FetchedAt: time.Now().Unix(),
	}
	created, _, err := s.o.ReadOrCreate(row, "CatalogID")
	if err != nil {
		return err
	}
	klog.V(4).Infof("object definition %s stored: %v", catalogID, created)
	return nil
}

// Count returns the number of stored definitions.
func (s *SQLiteStore) Count() (int, error) {
	n, err := s.o.QueryTable(TableName).Count()
	return int(n), err
}

// Purge deletes every stored definition.
func (s *SQLiteStore) Purge() error {
	num, err := s.o.QueryTable(TableName).Filter("catalog_id__isnull", false).Delete()
	if err != nil {
		return err
	}
	klog.V(4).Infof("Delete affected Num: %d", num)
	return nil
}

// Close closes the database. The orm alias stays registered.
func (s *SQLiteStore) Close() error {
	db, err := orm.GetDB(s.alias)
	if err != nil {
		return err
	}
	return db.Close()
}
