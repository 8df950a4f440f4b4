package codegen

// pyHelperRuntime is the support module every generated pytest suite ships
// with. It mirrors the Go helper runtime: an in-memory entity store with
// snapshot capture, the field-access helper compiled assertions use, the
// fixture loader and the implementation registry.
const pyHelperRuntime = `# Code generated helper runtime. DO NOT EDIT.
import copy
import json

import pytest


class VowError(Exception):
    """Outcome an implementation returns for a declared error case."""

    def __init__(self, name, retriable=False, message=""):
        super().__init__(message or name)
        self.name = name
        self.retriable = retriable
        self.message = message


# Implementations under test, keyed by behavior name. Wire the callables
# here before running the suite; unregistered behaviors skip.
IMPLEMENTATIONS = {}


def implementation_for(behavior):
    impl = IMPLEMENTATIONS.get(behavior)
    if impl is None:
        pytest.skip("no implementation registered for %r" % behavior)
    return impl


class VowEntity:
    def __init__(self, records):
        self._records = records

    def exists(self, criteria):
        return self.lookup(criteria) is not None

    def lookup(self, criteria):
        for rec in self._records:
            if _matches(rec, criteria):
                return copy.deepcopy(rec)
        return None

    def count(self, criteria):
        if criteria is None:
            return len(self._records)
        return sum(1 for rec in self._records if _matches(rec, criteria))

    def get_all(self):
        return [copy.deepcopy(rec) for rec in self._records]


class VowStore:
    def __init__(self, initial=None):
        self._entities = {}
        for name, records in (initial or {}).items():
            self._entities[name] = [copy.deepcopy(r) for r in records]

    def insert(self, name, rec):
        self._entities.setdefault(name, []).append(copy.deepcopy(rec))

    def entity(self, name):
        # Snapshot: a proxy never observes store writes made after it.
        return VowEntity([copy.deepcopy(r) for r in self._entities.get(name, [])])

    def capture(self):
        """Deep-copy the store; later mutation is not observable here."""
        return VowStore(self._entities)


class VowEnv:
    def __init__(self, initial=None):
        self.store = VowStore(initial)
        self.old = None


def _matches(rec, criteria):
    return all(rec.get(k) == v for k, v in criteria.items())


def vow_get(value, field):
    if isinstance(value, dict):
        return value.get(field)
    return getattr(value, field, None)


def load_fixture(path):
    with open(path) as f:
        return json.load(f)
`
