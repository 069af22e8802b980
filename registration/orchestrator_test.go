package registration

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-repository-scaffold/pkg/di"
	"github.com/goliatone/go-repository-scaffold/pkg/testsupport"
	"github.com/goliatone/go-repository-scaffold/repository"
	"github.com/goliatone/go-repository-scaffold/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func jabberwocky(t *testing.T) (*bun.DB, *store.Model) {
	t.Helper()
	db := testsupport.SeededSQLite(t)
	model, err := store.NewModel(db,
		Entity[testsupport.Trillig](),
		Entity[testsupport.Brillig](),
		Entity[testsupport.Moamrath](),
	)
	if err != nil {
		t.Fatalf("NewModel() failed: %v", err)
	}
	return db, model
}

func hostContainer(db *bun.DB, withFactory bool) *di.Container {
	c := di.New()
	AddScopedSession(c, db)
	if withFactory {
		AddPooledFactory(c, store.NewPooledFactory(db, store.PoolConfig{}))
	}
	return c
}

func shapesFor[T any, K comparable]() []reflect.Type {
	return []reflect.Type{
		di.ServiceOf[repository.Repository[T]](),
		di.ServiceOf[repository.ReadOnlyRepository[T]](),
		di.ServiceOf[repository.KeyedRepository[T, K]](),
		di.ServiceOf[repository.KeyedReadOnlyRepository[T, K]](),
	}
}

func TestAddRepositories_ThreeEntities(t *testing.T) {
	db, model := jabberwocky(t)
	c := hostContainer(db, true)

	report, err := AddRepositories(c, model)
	if err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}

	services := append(append(
		shapesFor[testsupport.Trillig, int](),
		shapesFor[testsupport.Brillig, string]()...),
		shapesFor[testsupport.Moamrath, uuid.UUID]()...)
	for _, s := range services {
		if !c.Has(s) {
			t.Errorf("expected %v to be bound", s)
		}
	}

	if got := len(report.Installed()); got != 15 {
		t.Errorf("expected 15 installed bindings, got %d", got)
	}
	if len(report.Keyless) != 0 || len(report.Unsupported) != 0 || len(report.Unbound) != 0 {
		t.Errorf("unexpected report sections %+v", report)
	}

	scope := c.NewScope(context.Background())
	ctx := scope.Context()

	trilligs, err := di.Resolve[repository.KeyedRepository[testsupport.Trillig, int]](scope)
	if err != nil {
		t.Fatalf("Resolve(KeyedRepository[Trillig, int]) failed: %v", err)
	}
	tr, ok, err := trilligs.GetByKey(ctx, 1)
	if err != nil || !ok || tr.Name != "A" {
		t.Errorf("GetByKey(1) = %+v, %v, %v", tr, ok, err)
	}
	if _, ok, _ := trilligs.GetByKey(ctx, 999); ok {
		t.Error("GetByKey(999) should be absent")
	}

	brilligs := di.MustResolve[repository.KeyedReadOnlyRepository[testsupport.Brillig, string]](scope)
	all, err := brilligs.ExistsByKeys(ctx, "1", "2", "7")
	if err != nil || !all {
		t.Errorf("ExistsByKeys(1,2,7) = %v, %v", all, err)
	}
	some, err := brilligs.ExistsByKeys(ctx, "1", "2", "8")
	if err != nil || some {
		t.Errorf("ExistsByKeys(1,2,8) = %v, %v", some, err)
	}

	moamraths := di.MustResolve[repository.KeyedRepository[testsupport.Moamrath, uuid.UUID]](scope)
	n, err := moamraths.DeleteByKeys(ctx)
	if err != nil || n != 0 {
		t.Errorf("DeleteByKeys() = %d, %v; want no-op", n, err)
	}
	left, _ := moamraths.GetAll(ctx)
	if len(left) != 5 {
		t.Errorf("expected 5 moamraths after no-op delete, got %d", len(left))
	}

	cached := di.MustResolve[repository.CachedRepository[testsupport.Moamrath]](scope)
	got, err := cached.GetAll(ctx)
	if err != nil || len(got) != 5 {
		t.Errorf("cached GetAll() = %d items, %v", len(got), err)
	}
}

func TestAddRepositories_Idempotent(t *testing.T) {
	db, model := jabberwocky(t)
	c := hostContainer(db, true)

	if _, err := AddRepositories(c, model); err != nil {
		t.Fatalf("first AddRepositories() failed: %v", err)
	}
	before := c.Len()

	report, err := AddRepositories(c, model)
	if err != nil {
		t.Fatalf("second AddRepositories() failed: %v", err)
	}
	if c.Len() != before {
		t.Errorf("second run changed the container: %d -> %d bindings", before, c.Len())
	}
	if len(report.Installed()) != 0 || len(report.Skipped()) != 15 {
		t.Errorf("expected all 15 bindings skipped, got %d installed / %d skipped",
			len(report.Installed()), len(report.Skipped()))
	}
}

func TestAddRepositories_FirstRegistrationWins(t *testing.T) {
	db, model := jabberwocky(t)
	c := hostContainer(db, false)

	custom := repository.New[testsupport.Trillig](store.NewSession(db))
	di.TryAddInstance[repository.Repository[testsupport.Trillig]](c, custom)

	report, err := AddRepositories(c, model, WithCachedRepositories(false))
	if err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}

	skipped := report.Skipped()
	if len(skipped) != 1 || skipped[0].Shape != ShapeRepository || skipped[0].Entity != "trillig" {
		t.Fatalf("expected the pre-bound trillig repository to be skipped, got %+v", skipped)
	}

	got := di.MustResolve[repository.Repository[testsupport.Trillig]](c.NewScope(context.Background()))
	if got != repository.Repository[testsupport.Trillig](custom) {
		t.Error("host registration should win over AddRepositories")
	}
}

func TestAddRepositories_MissingFactory(t *testing.T) {
	db, model := jabberwocky(t)
	c := hostContainer(db, false)

	report, err := AddRepositories(c, model)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Option != "EnableCachedRepositories" {
		t.Errorf("unexpected error detail %v", err)
	}

	for _, s := range []reflect.Type{
		di.ServiceOf[repository.CachedRepository[testsupport.Trillig]](),
		di.ServiceOf[repository.CachedRepository[testsupport.Brillig]](),
		di.ServiceOf[repository.CachedRepository[testsupport.Moamrath]](),
	} {
		if c.Has(s) {
			t.Errorf("%v should not be bound without a factory", s)
		}
	}

	if !c.Has(di.ServiceOf[repository.Repository[testsupport.Trillig]]()) ||
		!c.Has(di.ServiceOf[repository.KeyedRepository[testsupport.Moamrath, uuid.UUID]]()) {
		t.Error("plain and keyed bindings made before the error should remain")
	}
	if report == nil || len(report.Installed()) != 12 {
		t.Errorf("expected a report of the 12 bindings made before the error")
	}
}

func TestAddRepositories_CachedDisabled(t *testing.T) {
	db, model := jabberwocky(t)
	c := hostContainer(db, false)

	report, err := AddRepositories(c, model, WithCachedRepositories(false))
	if err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}
	for _, e := range report.Entries {
		if e.Shape == ShapeCachedRepository {
			t.Errorf("unexpected cached binding for %s", e.Entity)
		}
	}
	if c.Has(di.ServiceOf[repository.CachedRepository[testsupport.Brillig]]()) {
		t.Error("cached repository bound although disabled")
	}
}

func TestAddRepositories_KeylessAndUnsupported(t *testing.T) {
	db := testsupport.OpenSQLite(t)
	model, err := store.NewModel(db,
		Entity[tove](),
		Entity[jubjub](),
		Keyed[bandersnatch, string](),
	)
	if err != nil {
		t.Fatalf("NewModel() failed: %v", err)
	}
	c := hostContainer(db, false)

	report, err := AddRepositories(c, model, WithCachedRepositories(false))
	if err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}

	if !c.Has(di.ServiceOf[repository.Repository[tove]]()) ||
		!c.Has(di.ServiceOf[repository.ReadOnlyRepository[tove]]()) {
		t.Error("keyless entity should still get plain shapes")
	}
	if !c.Has(di.ServiceOf[repository.Repository[jubjub]]()) {
		t.Error("entity with unsupported key should still get plain shapes")
	}
	if c.Has(di.ServiceOf[repository.KeyedRepository[jubjub, jubjubID]]()) {
		t.Error("a named key type has no built-in binding")
	}

	want := []string{"tove", "bandersnatch"}
	if len(report.Keyless) != 2 || report.Keyless[0] != want[0] || report.Keyless[1] != want[1] {
		t.Errorf("Keyless = %v, want %v (bandersnatch is keyed by Code, not Id)", report.Keyless, want)
	}
	if len(report.Unsupported) != 1 || report.Unsupported[0] != "jubjub" {
		t.Errorf("Unsupported = %v, want [jubjub]", report.Unsupported)
	}
}

func TestAddRepositories_NarrowIntegerKeys(t *testing.T) {
	db := testsupport.OpenSQLite(t)
	model, err := store.NewModel(db, Entity[gyre](), Entity[jubjub]())
	if err != nil {
		t.Fatalf("NewModel() failed: %v", err)
	}
	c := hostContainer(db, false)

	core, logs := observer.New(zap.WarnLevel)
	report, err := AddRepositories(c, model, WithCachedRepositories(false), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}

	if !c.Has(di.ServiceOf[repository.KeyedRepository[gyre, int16]]()) ||
		!c.Has(di.ServiceOf[repository.KeyedReadOnlyRepository[gyre, int16]]()) {
		t.Error("an int16 key should bind keyed shapes through Entity")
	}
	if len(report.Unsupported) != 1 || report.Unsupported[0] != "jubjub" {
		t.Errorf("Unsupported = %v, want [jubjub]", report.Unsupported)
	}

	warned := logs.FilterMessage("unsupported key type, keyed repositories not bound").All()
	if len(warned) != 1 {
		t.Fatalf("expected 1 unsupported key warning, got %d", len(warned))
	}
	hint, _ := warned[0].ContextMap()["hint"].(string)
	if hint != "describe the entity with registration.Keyed[jubjub, registration.jubjubID]" {
		t.Errorf("unexpected hint %q", hint)
	}
}

func TestAddRepositories_ExplicitKeyedBinder(t *testing.T) {
	db := testsupport.OpenSQLite(t)
	model, err := store.NewModel(db, Keyed[jubjub, jubjubID](), Keyed[bandersnatch, string]())
	if err != nil {
		t.Fatalf("NewModel() failed: %v", err)
	}
	c := hostContainer(db, false)

	if _, err := AddRepositories(c, model, WithCachedRepositories(false), WithKeyField("Code")); err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}
	if !c.Has(di.ServiceOf[repository.KeyedRepository[bandersnatch, string]]()) {
		t.Error("bandersnatch should be keyed by its Code field")
	}
	if c.Has(di.ServiceOf[repository.KeyedRepository[jubjub, jubjubID]]()) {
		t.Error("jubjub has no Code field and should be keyless under this key field")
	}

	c = hostContainer(db, false)
	if _, err := AddRepositories(c, model, WithCachedRepositories(false)); err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}
	if !c.Has(di.ServiceOf[repository.KeyedRepository[jubjub, jubjubID]]()) {
		t.Error("Keyed[jubjub, jubjubID] should bind a key type without a built-in binding")
	}
}

type plainEntity struct{}

func (plainEntity) ModelType() reflect.Type { return reflect.TypeFor[tove]() }

func TestAddRepositories_UnboundEntityIsSkipped(t *testing.T) {
	db := testsupport.OpenSQLite(t)
	model, err := store.NewModel(db, plainEntity{}, Entity[testsupport.Trillig]())
	if err != nil {
		t.Fatalf("NewModel() failed: %v", err)
	}

	core, logs := observer.New(zap.DebugLevel)
	c := hostContainer(db, false)

	report, err := AddRepositories(c, model, WithCachedRepositories(false), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}
	if len(report.Unbound) != 1 || report.Unbound[0] != "tove" {
		t.Errorf("Unbound = %v, want [tove]", report.Unbound)
	}
	if c.Has(di.ServiceOf[repository.Repository[tove]]()) {
		t.Error("unbound entity should not get repositories")
	}

	warned := logs.FilterMessage("entity type has no repository binder, skipping").All()
	if len(warned) != 1 || warned[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warning for the unbound entity, got %d", len(warned))
	}
	if warned[0].ContextMap()["entity"] != "tove" {
		t.Errorf("warning should name the entity, got %v", warned[0].ContextMap())
	}
}

func TestAddRepositories_Logging(t *testing.T) {
	db, model := jabberwocky(t)
	core, logs := observer.New(zap.DebugLevel)

	_, err := AddRepositories(hostContainer(db, false), model, WithLogger(zap.New(core)))
	if err == nil {
		t.Fatal("expected a configuration error")
	}

	failures := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(failures) != 1 || failures[0].Message != "cached repositories not bound" {
		t.Fatalf("expected one error log, got %v", failures)
	}
	if failures[0].LoggerName != "registration" {
		t.Errorf("expected logger name registration, got %q", failures[0].LoggerName)
	}

	bound := logs.FilterMessage("repository bound").Len()
	if bound != 12 {
		t.Errorf("expected 12 debug logs for bound repositories, got %d", bound)
	}

	summary := logs.FilterMessage("repositories registered").All()
	if len(summary) != 1 || summary[0].ContextMap()["installed"] != int64(12) {
		t.Errorf("unexpected summary log %v", summary)
	}
}

func TestAddRepositories_InvalidInput(t *testing.T) {
	db, model := jabberwocky(t)

	if _, err := AddRepositories(nil, model); err == nil {
		t.Error("expected an error for a nil container")
	}
	if _, err := AddRepositories(di.New(), nil); err == nil {
		t.Error("expected an error for a nil model")
	}
	if _, err := AddRepositories(hostContainer(db, true), model, WithKeyField("")); err == nil {
		t.Error("expected a validation error for an empty key field")
	}
}

func TestAddRepositories_ReportGolden(t *testing.T) {
	db, model := jabberwocky(t)
	c := hostContainer(db, true)

	if _, err := AddRepositories(c, model); err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}
	report, err := AddRepositories(c, model, WithCachedRepositories(false))
	if err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}
	testsupport.CompareWithGolden(t, testsupport.GoldenPath("rerun_report.golden"), []byte(report.String()))

	c = hostContainer(db, true)
	report, err = AddRepositories(c, model)
	if err != nil {
		t.Fatalf("AddRepositories() failed: %v", err)
	}
	testsupport.CompareWithGolden(t, testsupport.GoldenPath("report.golden"), []byte(report.String()))
}
