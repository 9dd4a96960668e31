package sqlinline

const QSelectProjectByID = `--sql 2f6f9c44-6f38-4f4e-9a2d-83c1d7a64b10
select id, owner_id, name, description, industry, target_audience, created_at
from projects
where id = $1::uuid
limit 1;
`

const QSelectProjectForOwner = `--sql 22b72f99-51a3-4f4b-9ee8-8a3e3bce6357
select id, owner_id, name, description, industry, target_audience, created_at
from projects
where id = $1::uuid and owner_id = $2::uuid
limit 1;
`

// QLockProject serializes version bumps for a project; the reconciler takes
// this lock before computing the next deck version.
const QLockProject = `--sql 707f29ec-f371-4daf-b4c6-84da4f2e8fa6
select id
from projects
where id = $1::uuid
for update;
`

// QInsertProject exists for the seed tool; the API itself never creates
// projects.
const QInsertProject = `--sql 5b1c0d0e-7e0b-4a42-b6d4-2f0f4f9a1c33
insert into projects(id, owner_id, name, description, industry, target_audience, created_at, updated_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::text, now(), now());
`
