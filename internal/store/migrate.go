package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

// migrationBcryptCost hashes plaintext passwords found in legacy records.
var migrationBcryptCost = bcrypt.DefaultCost

// migration rewrites a decoded version-0 payload into the version-1 shape.
type migration func(v any) (any, error)

// migrations are selected by the last path segment of the key.
var migrations = map[string]migration{
	KeyJobs:                eachObject(migrateJob),
	KeyCoursesData:         eachObject(migrateCourse),
	KeyRegisteredUsers:     eachObject(migrateUser),
	KeyRegisteredCompanies: eachObject(migrateCompany),
	KeyUserApplications:    eachObject(migrateAppliedJob),
	KeyCurrentUser:         migrateIdentity,
	KeyCompanyUser:         migrateIdentity,
	KeyIsUserLoggedIn:      migrateFlag,
	KeyIsCompanyLoggedIn:   migrateFlag,
	KeyCurrentCourse:       migrateCourseRef,
}

func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

func migrate(key string, version int, data json.RawMessage) (json.RawMessage, error) {
	if version != 0 {
		return nil, fmt.Errorf("unsupported schema version %d", version)
	}
	m, ok := migrations[baseName(key)]
	if !ok {
		return data, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	out, err := m(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func eachObject(fn func(map[string]any) error) migration {
	return func(v any) (any, error) {
		if v == nil {
			return []any{}, nil
		}
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list, got %T", v)
		}
		out := make([]any, 0, len(list))
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if err := fn(obj); err != nil {
				return nil, err
			}
			out = append(out, obj)
		}
		return out, nil
	}
}

// stringID renders numeric ids (Date.now() values, catalog integers) as strings.
func stringID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func rename(m map[string]any, from, to string) {
	v, ok := m[from]
	if !ok {
		return
	}
	delete(m, from)
	if _, exists := m[to]; !exists {
		m[to] = v
	}
}

func fixID(m map[string]any, field string) {
	if v, ok := m[field]; ok {
		m[field] = stringID(v)
	}
}

func fixModules(v any) {
	modules, _ := v.([]any)
	for _, item := range modules {
		mod, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fixID(mod, "id")
		videos, _ := mod["videos"].([]any)
		for _, vi := range videos {
			if video, ok := vi.(map[string]any); ok {
				fixID(video, "id")
			}
		}
	}
}

func migrateJob(m map[string]any) error {
	fixID(m, "id")
	fixID(m, "companyId")
	rename(m, "cidade", "city")
	rename(m, "estado", "state")
	rename(m, "tipo_contrato", "contractType")
	rename(m, "modalidade", "workMode")
	rename(m, "beneficios", "benefits")
	rename(m, "location", "city")
	delete(m, "recommendedCourses")

	if salary, ok := m["salary"].(string); ok {
		m["salary"] = strings.TrimSpace(salary)
	}
	if reqs, ok := m["requirements"].([]any); ok {
		parts := make([]string, 0, len(reqs))
		for _, r := range reqs {
			parts = append(parts, fmt.Sprint(r))
		}
		m["requirements"] = strings.Join(parts, ", ")
	}
	if s, _ := m["status"].(string); s == "" {
		m["status"] = domain.JobStatusOpen
	}
	fixModules(m["modules"])
	return nil
}

func migrateCourse(m map[string]any) error {
	fixID(m, "id")
	// company drafts kept the module list under "modules"
	if list, ok := m["modules"].([]any); ok {
		if _, exists := m["modulesList"]; !exists {
			m["modulesList"] = list
		}
		m["modules"] = len(list)
	}
	fixModules(m["modulesList"])
	return nil
}

func hashLegacyPassword(m map[string]any) error {
	plain, _ := m["password"].(string)
	delete(m, "password")
	delete(m, "confirmPassword")
	if _, ok := m["passwordHash"]; ok || plain == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), migrationBcryptCost)
	if err != nil {
		return fmt.Errorf("hash legacy password: %w", err)
	}
	m["passwordHash"] = string(hash)
	return nil
}

func migrateUser(m map[string]any) error {
	fixID(m, "id")
	if err := hashLegacyPassword(m); err != nil {
		return err
	}
	if _, ok := m["role"]; !ok {
		m["role"] = domain.RoleCandidate
	}
	if _, ok := m["status"]; !ok {
		m["status"] = domain.StatusActive
	}

	if _, ok := m["address"]; !ok {
		addr := map[string]any{}
		for _, f := range []string{"cep", "logradouro", "bairro", "cidade", "estado", "numero"} {
			if v, ok := m[f]; ok {
				addr[f] = v
				delete(m, f)
			}
		}
		m["address"] = addr
	}

	// very old profiles kept bare course ids; there is no snapshot to recover
	if courses, ok := m["courses"].([]any); ok {
		kept := make([]any, 0, len(courses))
		for _, c := range courses {
			obj, ok := c.(map[string]any)
			if !ok {
				continue
			}
			migrateEnrolledCourse(obj)
			kept = append(kept, obj)
		}
		m["courses"] = kept
	}
	return nil
}

func migrateEnrolledCourse(m map[string]any) {
	fixID(m, "id")
	if _, ok := m["source"]; !ok {
		if _, fromJob := m["company"]; fromJob {
			m["source"] = string(domain.SourceJob)
		} else {
			m["source"] = string(domain.SourceCatalog)
		}
	}
	fixModules(m["modulesList"])
	if _, ok := m["modules"].(json.Number); !ok {
		list, _ := m["modulesList"].([]any)
		m["modules"] = len(list)
	}
}

func migrateCompany(m map[string]any) error {
	fixID(m, "id")
	if err := hashLegacyPassword(m); err != nil {
		return err
	}
	if cnpj, ok := m["cnpj"].(string); ok {
		m["cnpj"] = domain.OnlyDigits(cnpj)
	}
	if _, ok := m["role"]; !ok {
		m["role"] = domain.RoleCompany
	}
	if _, ok := m["status"]; !ok {
		m["status"] = domain.StatusActive
	}
	if _, ok := m["address"]; !ok {
		m["address"] = map[string]any{
			"street": m["location"],
			"cep":    m["cep"],
			"city":   m["city"],
			"state":  m["state"],
		}
	}
	for _, f := range []string{"location", "cep", "city", "state"} {
		delete(m, f)
	}
	return nil
}

// migrateAppliedJob wraps a bare job snapshot into an AppliedJob.
func migrateAppliedJob(m map[string]any) error {
	if _, wrapped := m["job"]; wrapped {
		if job, ok := m["job"].(map[string]any); ok {
			return migrateJob(job)
		}
		return nil
	}
	job := make(map[string]any, len(m))
	for k, v := range m {
		job[k] = v
		delete(m, k)
	}
	if err := migrateJob(job); err != nil {
		return err
	}
	m["job"] = job
	if at, ok := job["appliedAt"]; ok {
		m["appliedAt"] = at
		delete(job, "appliedAt")
	}
	return nil
}

// migrateIdentity reduces a legacy user or company object to its id.
func migrateIdentity(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		return stringID(x["id"]), nil
	default:
		return stringID(x), nil
	}
}

func migrateFlag(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return x == "true", nil
	default:
		return false, nil
	}
}

// migrateCourseRef reduces a legacy course object to a reference.
func migrateCourseRef(v any) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a course object, got %T", v)
	}
	if _, isRef := obj["source"]; isRef {
		fixID(obj, "id")
		return obj, nil
	}
	source := domain.SourceCatalog
	if _, fromJob := obj["company"]; fromJob {
		source = domain.SourceJob
	}
	return map[string]any{"source": string(source), "id": stringID(obj["id"])}, nil
}
